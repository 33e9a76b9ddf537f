package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/atlas-hr/traceflow/models"
	"github.com/atlas-hr/traceflow/utils"
)

// CreateInteractionEvent is the field/form event sink. The form tracker emits
// here eagerly, independently of the periodic recording flush.
func CreateInteractionEvent(postgresDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var receiver models.InteractionEventReceiver
		err := json.NewDecoder(r.Body).Decode(&receiver)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		err = receiver.Validate()
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		pageURL, err := url.Parse(receiver.PageURL)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, errors.New("invalid pageUrl format"))
			return
		}
		domain := pageURL.Hostname()

		// Look up the project using the domain
		var projectId int64
		err = postgresDB.QueryRow("SELECT id FROM projects WHERE domain = $1", domain).Scan(&projectId)
		if err != nil {
			log.Println("Error looking up projectId", err)
			utils.WriteErrorResponse(w, http.StatusNotFound, errors.New("project not found"))
			return
		}

		timestamp := receiver.Timestamp
		if timestamp.IsZero() {
			timestamp = time.Now()
		}

		metadata := receiver.Metadata
		if len(metadata) == 0 {
			metadata = json.RawMessage("{}")
		}

		insertQuery := `
			INSERT INTO interaction_events
				(project_id, project_domain, session_id, event_type, page_url, element_id, element_text, metadata, timestamp)
			VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		_, err = postgresDB.Exec(insertQuery,
			projectId,
			domain,
			receiver.SessionID,
			receiver.EventType,
			receiver.PageURL,
			receiver.ElementID,
			receiver.ElementText,
			metadata,
			timestamp,
		)
		if err != nil {
			log.Println("Error inserting interaction event", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

// GetClickstream returns a project's interaction events newest first, one page
// at a time. nextOffset is null once the feed is exhausted, which is what the
// infinite scroll keys on.
func GetClickstream(postgresDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, err := utils.ExtractDomainFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		limit, offset := utils.ExtractPagination(r, 50, 200)

		// Fetch one extra row to know whether another page exists
		rows, err := postgresDB.Query(`
			SELECT id, project_id, project_domain, session_id, event_type, page_url, element_id, element_text, metadata, timestamp
			FROM interaction_events
			WHERE project_domain = $1
			ORDER BY timestamp DESC, id DESC
			LIMIT $2 OFFSET $3
		`, domain, limit+1, offset)
		if err != nil {
			log.Println("Error querying interaction events:", err)
			http.Error(w, "Error querying interaction events", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		var events []models.InteractionEvent
		for rows.Next() {
			var event models.InteractionEvent
			err := rows.Scan(&event.ID, &event.ProjectID, &event.ProjectDomain, &event.SessionID, &event.EventType, &event.PageURL, &event.ElementID, &event.ElementText, &event.Metadata, &event.Timestamp)
			if err != nil {
				log.Println("Error scanning interaction event:", err)
				http.Error(w, "Error scanning interaction event", http.StatusInternalServerError)
				return
			}
			events = append(events, event)
		}

		if err := rows.Err(); err != nil {
			log.Println("Error iterating interaction events:", err)
			http.Error(w, "Error iterating interaction events", http.StatusInternalServerError)
			return
		}

		var nextOffset *int
		if len(events) > limit {
			events = events[:limit]
			next := offset + limit
			nextOffset = &next
		}

		jsonResponse, err := json.Marshal(map[string]interface{}{
			"events":     events,
			"nextOffset": nextOffset,
		})
		if err != nil {
			log.Println("Error encoding JSON:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(jsonResponse)
	}
}

// GetFormStats aggregates interaction events by type over a date range:
// blurs vs submits vs abandonments.
func GetFormStats(postgresDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, err := utils.ExtractDomainFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		start, end, err := utils.ExtractDateRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		query := `
			SELECT event_type, COUNT(*) as counts
			FROM interaction_events
			WHERE project_domain = $1 AND timestamp BETWEEN $2 AND $3
			GROUP BY event_type
		`

		rows, err := postgresDB.Query(query, domain, start, end)
		if err != nil {
			log.Println("Error querying form stats:", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		var eventType string
		var count int
		var eventTypes []string
		var counts []int
		for rows.Next() {
			err = rows.Scan(&eventType, &count)
			if err != nil {
				log.Println("Error scanning form stats:", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			eventTypes = append(eventTypes, eventType)
			counts = append(counts, count)
		}

		jsonStats, err := json.Marshal(map[string]interface{}{
			"eventTypes": eventTypes,
			"counts":     counts,
		})
		if err != nil {
			log.Println("Error marshalling form stats:", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(jsonStats)
	}
}
