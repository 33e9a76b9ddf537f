package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/atlas-hr/traceflow/models"
	"github.com/atlas-hr/traceflow/utils"
)

func GetProjects(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rows, err := db.Query("SELECT id, name, domain, user_id, traceflow_enabled FROM projects")
		if err != nil {
			log.Println("Error querying projects:", err)
			http.Error(w, "Error retrieving projects", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		var projects []models.Project
		for rows.Next() {
			var project models.Project
			err := rows.Scan(&project.ID, &project.Name, &project.Domain, &project.UserID, &project.TraceflowEnabled)
			if err != nil {
				log.Println("Error scanning project:", err)
				http.Error(w, "Error scanning project", http.StatusInternalServerError)
				return
			}
			projects = append(projects, project)
		}

		if err := rows.Err(); err != nil {
			log.Println("Error iterating projects:", err)
			http.Error(w, "Error iterating projects", http.StatusInternalServerError)
			return
		}

		jsonResponse, err := json.Marshal(projects)
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

func GetUserProjects(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.ExtractIDFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rows, err := db.Query("SELECT id, name, domain, user_id, traceflow_enabled FROM projects WHERE user_id = $1", userID)
		if err != nil {
			log.Println("Error querying user projects:", err)
			http.Error(w, "Error retrieving user projects", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		var projects []models.Project
		for rows.Next() {
			var project models.Project
			err := rows.Scan(&project.ID, &project.Name, &project.Domain, &project.UserID, &project.TraceflowEnabled)
			if err != nil {
				log.Println("Error scanning user project:", err)
				http.Error(w, "Error scanning user project", http.StatusInternalServerError)
				return
			}
			projects = append(projects, project)
		}

		if err := rows.Err(); err != nil {
			log.Println("Error iterating user projects:", err)
			http.Error(w, "Error iterating user projects", http.StatusInternalServerError)
			return
		}

		jsonResponse, err := json.Marshal(projects)
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

func GetProject(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.ExtractIDFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		row := db.QueryRow("SELECT id, name, domain, user_id, traceflow_enabled FROM projects WHERE id = $1", id)

		var project models.Project
		err = row.Scan(&project.ID, &project.Name, &project.Domain, &project.UserID, &project.TraceflowEnabled)
		if err == sql.ErrNoRows {
			http.Error(w, fmt.Sprintf("Project with id %d doesn't exist", id), http.StatusNotFound)
			return
		} else if err != nil {
			log.Println("Error retrieving project:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		jsonResponse, err := json.Marshal(project)
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

func CreateProject(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var project models.ProjectInsert

		err := json.NewDecoder(r.Body).Decode(&project)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		err = project.Validate()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		_, err = db.Exec(`
			INSERT INTO projects (name, domain, user_id, traceflow_enabled)
			VALUES ($1, $2, $3, $4)
		`, project.Name, project.Domain, project.UserID, project.TraceflowEnabled)
		if err != nil {
			log.Println("Error inserting project:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

func UpdateProject(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.ExtractIDFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var project models.Project
		err = json.NewDecoder(r.Body).Decode(&project)
		if err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		result, err := db.Exec(`
			UPDATE projects
			SET name = $1, domain = $2, traceflow_enabled = $3
			WHERE id = $4
		`, project.Name, project.Domain, project.TraceflowEnabled, id)
		if err != nil {
			log.Println("Error updating project:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if rowsAffected == 0 {
			http.Error(w, fmt.Sprintf("Project with id %d doesn't exist", id), http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func DeleteProject(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.ExtractIDFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := db.Exec(`
			DELETE FROM projects
			WHERE id = $1
		`, id)
		if err != nil {
			log.Println("Error deleting project:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if rowsAffected == 0 {
			http.Error(w, fmt.Sprintf("Project with id %d doesn't exist", id), http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
