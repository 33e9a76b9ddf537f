package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/mileusna/useragent"
	"github.com/oschwald/geoip2-golang"

	"github.com/atlas-hr/traceflow/models"
	"github.com/atlas-hr/traceflow/utils"
)

// CreateRecording is the persistence sink's create half: the pipeline's first
// flush lands here, and the returned id keys every later update.
func CreateRecording(postgresDB *sql.DB, geoipDB *geoip2.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var receiver models.RecordingReceiver
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
		var traceflowEnabled bool
		err = postgresDB.QueryRow("SELECT id, traceflow_enabled FROM projects WHERE domain = $1", domain).Scan(&projectId, &traceflowEnabled)
		if err != nil {
			log.Println("Error looking up projectId", err)
			utils.WriteErrorResponse(w, http.StatusNotFound, errors.New("project not found"))
			return
		}
		if !traceflowEnabled {
			utils.WriteErrorResponse(w, http.StatusForbidden, errors.New("session analytics is not enabled for this project"))
			return
		}

		ipAddress := "151.30.13.167" // test IP
		if os.Getenv("ENV") == "production" {
			ipAddress = utils.GetIPAddress(r)
		}

		location := utils.LookupLocation(geoipDB, ipAddress)

		ua := useragent.Parse(receiver.Metadata.UserAgent)

		// Generate daily salt or grab from cache if already generated
		dailySalt, err := utils.GenerateDailySalt()
		if err != nil {
			log.Println("Error generating or grabbing daily salt", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		visitorIdentifier, err := utils.GenerateVisitorIdentifier(dailySalt, domain, ipAddress, receiver.Metadata.UserAgent)
		if err != nil {
			log.Println("Error generating a visitor identifier", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Check if the visitor identifier was already seen today
		var seen bool
		err = postgresDB.QueryRow("SELECT EXISTS(SELECT 1 FROM daily_unique_identifiers WHERE unique_identifier = $1)", visitorIdentifier).Scan(&seen)
		if err != nil {
			log.Println("Error checking for existing visitor identifier", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		isUnique := !seen
		if isUnique {
			_, err := postgresDB.Exec("INSERT INTO daily_unique_identifiers (unique_identifier) VALUES ($1)", visitorIdentifier)
			if err != nil {
				log.Println("Error inserting visitor identifier", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}

		metadata, err := json.Marshal(map[string]interface{}{
			"viewportWidth":  receiver.Metadata.ViewportWidth,
			"viewportHeight": receiver.Metadata.ViewportHeight,
			"privacy":        receiver.Privacy,
		})
		if err != nil {
			log.Println("Error marshalling recording metadata", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		events := receiver.Events
		if len(events) == 0 {
			events = json.RawMessage("[]")
		}

		recording := models.RecordingInsert{
			ProjectID:     projectId,
			ProjectDomain: domain,
			SessionID:     receiver.SessionID,
			Events:        events,
			StartTime:     receiver.StartTime,
			EndTime:       receiver.EndTime,
			DurationMs:    receiver.DurationMs,
			PageCount:     receiver.PageCount,
			EventCount:    receiver.EventCount,
			UserAgent:     receiver.Metadata.UserAgent,
			DeviceType:    utils.GetDeviceType(&ua),
			OS:            ua.OS,
			Browser:       ua.Name,
			Language:      receiver.Metadata.Language,
			Country:       location.Country,
			Region:        location.Region,
			City:          location.City,
			IsUnique:      isUnique,
			Metadata:      metadata,
		}

		insertQuery := `
			INSERT INTO recordings
				(project_id, project_domain, session_id, events, start_time, end_time, duration_ms, page_count, event_count, user_agent, device_type, os, browser, language, country, region, city, is_unique, metadata)
			VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			RETURNING id
		`

		var recordingId int64
		err = postgresDB.QueryRow(insertQuery,
			recording.ProjectID,
			recording.ProjectDomain,
			recording.SessionID,
			recording.Events,
			recording.StartTime,
			recording.EndTime,
			recording.DurationMs,
			recording.PageCount,
			recording.EventCount,
			recording.UserAgent,
			recording.DeviceType,
			recording.OS,
			recording.Browser,
			recording.Language,
			recording.Country,
			recording.Region,
			recording.City,
			recording.IsUnique,
			recording.Metadata,
		).Scan(&recordingId)
		if err != nil {
			log.Println("Error inserting recording", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// The pipeline keys all subsequent flushes on this id
		jsonResponse, err := json.Marshal(map[string]string{"id": strconv.FormatInt(recordingId, 10)})
		if err != nil {
			log.Println("Error encoding JSON:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write(jsonResponse)
	}
}

// UpdateRecording replaces the stored event array and derived counters for an
// existing recording. The client re-sends the full accumulated buffer each
// flush, so the row always holds a complete, self-consistent event sequence.
func UpdateRecording(postgresDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.ExtractIDFromURL(r)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		var receiver models.RecordingReceiver
		err = json.NewDecoder(r.Body).Decode(&receiver)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, errors.New("invalid request body"))
			return
		}

		err = receiver.Validate()
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		events := receiver.Events
		if len(events) == 0 {
			events = json.RawMessage("[]")
		}

		result, err := postgresDB.Exec(`
			UPDATE recordings
			SET events = $1, end_time = $2, duration_ms = $3, page_count = $4, event_count = $5
			WHERE id = $6
		`, events, receiver.EndTime, receiver.DurationMs, receiver.PageCount, receiver.EventCount, id)
		if err != nil {
			log.Println("Error updating recording:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if rowsAffected == 0 {
			utils.WriteErrorResponse(w, http.StatusNotFound, fmt.Errorf("recording with id %d doesn't exist", id))
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// GetRecordings lists a project's recordings newest first, without the event
// payloads. The events column is heavy; it is only returned per recording.
func GetRecordings(postgresDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, err := utils.ExtractDomainFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		limit, offset := utils.ExtractPagination(r, 25, 100)

		rows, err := postgresDB.Query(`
			SELECT id, project_id, project_domain, session_id, start_time, end_time, duration_ms, page_count, event_count, user_agent, device_type, os, browser, language, country, region, city, is_unique
			FROM recordings
			WHERE project_domain = $1
			ORDER BY start_time DESC
			LIMIT $2 OFFSET $3
		`, domain, limit, offset)
		if err != nil {
			log.Println("Error querying recordings:", err)
			http.Error(w, "Error querying recordings", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		var recordings []models.Recording
		for rows.Next() {
			var recording models.Recording
			var endTime sql.NullTime
			err := rows.Scan(&recording.ID, &recording.ProjectID, &recording.ProjectDomain, &recording.SessionID, &recording.StartTime, &endTime, &recording.DurationMs, &recording.PageCount, &recording.EventCount, &recording.UserAgent, &recording.DeviceType, &recording.OS, &recording.Browser, &recording.Language, &recording.Country, &recording.Region, &recording.City, &recording.IsUnique)
			if err != nil {
				log.Println("Error scanning recording:", err)
				http.Error(w, "Error scanning recording", http.StatusInternalServerError)
				return
			}
			if endTime.Valid {
				recording.EndTime = &endTime.Time
			}
			recordings = append(recordings, recording)
		}

		if err := rows.Err(); err != nil {
			log.Println("Error iterating recordings:", err)
			http.Error(w, "Error iterating recordings", http.StatusInternalServerError)
			return
		}

		jsonResponse, err := json.Marshal(recordings)
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

// GetRecording returns one recording including its full event sequence, used
// by the session replay viewer.
func GetRecording(postgresDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.ExtractIDFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		row := postgresDB.QueryRow(`
			SELECT id, project_id, project_domain, session_id, events, start_time, end_time, duration_ms, page_count, event_count, user_agent, device_type, os, browser, language, country, region, city, is_unique, metadata
			FROM recordings
			WHERE id = $1
		`, id)

		var recording models.Recording
		var endTime sql.NullTime
		err = row.Scan(
			&recording.ID,
			&recording.ProjectID,
			&recording.ProjectDomain,
			&recording.SessionID,
			&recording.Events,
			&recording.StartTime,
			&endTime,
			&recording.DurationMs,
			&recording.PageCount,
			&recording.EventCount,
			&recording.UserAgent,
			&recording.DeviceType,
			&recording.OS,
			&recording.Browser,
			&recording.Language,
			&recording.Country,
			&recording.Region,
			&recording.City,
			&recording.IsUnique,
			&recording.Metadata,
		)

		if err == sql.ErrNoRows {
			http.Error(w, fmt.Sprintf("Recording with id %d doesn't exist", id), http.StatusNotFound)
			return
		} else if err != nil {
			log.Println("Error retrieving recording:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if endTime.Valid {
			recording.EndTime = &endTime.Time
		}

		jsonResponse, err := json.Marshal(recording)
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

// DeleteRecording removes a recording, e.g. for data retention requests.
func DeleteRecording(postgresDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.ExtractIDFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := postgresDB.Exec(`
			DELETE FROM recordings
			WHERE id = $1
		`, id)
		if err != nil {
			log.Println("Error deleting recording:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if rowsAffected == 0 {
			http.Error(w, fmt.Sprintf("Recording with id %d doesn't exist", id), http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
