package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/atlas-hr/traceflow/utils"
)

// GetHeatmap aggregates interaction frequency per element and page over a date
// range, which the dashboard renders as an interaction heatmap. An optional
// pageUrl query parameter narrows the aggregate to one page.
func GetHeatmap(postgresDB *sql.DB) http.HandlerFunc {
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

		pageFilter := r.URL.Query().Get("pageUrl")

		query := `
			SELECT page_url, element_id, COUNT(*) as counts
			FROM interaction_events
			WHERE project_domain = $1 AND timestamp BETWEEN $2 AND $3
		`
		args := []interface{}{domain, start, end}
		if pageFilter != "" {
			query += " AND page_url = $4"
			args = append(args, pageFilter)
		}
		query += `
			GROUP BY page_url, element_id
			ORDER BY counts DESC
		`

		rows, err := postgresDB.Query(query, args...)
		if err != nil {
			log.Println("Error querying heatmap:", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		var cells []map[string]interface{}
		for rows.Next() {
			var pageURL, elementID string
			var count int
			err = rows.Scan(&pageURL, &elementID, &count)
			if err != nil {
				log.Println("Error scanning heatmap cell:", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			cells = append(cells, map[string]interface{}{
				"pageUrl":   pageURL,
				"elementId": elementID,
				"count":     count,
			})
		}

		if err := rows.Err(); err != nil {
			log.Println("Error iterating heatmap cells:", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		jsonStats, err := json.Marshal(map[string]interface{}{
			"cells": cells,
		})
		if err != nil {
			log.Println("Error marshalling heatmap:", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(jsonStats)
	}
}
