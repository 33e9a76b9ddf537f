package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/atlas-hr/traceflow/models"
	"github.com/atlas-hr/traceflow/utils"
)

func GetUsers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rows, err := db.Query(`
			SELECT users.id, users.name, users.email, users.role, projects.id, projects.name, projects.domain, projects.user_id, projects.traceflow_enabled
			FROM users
			LEFT JOIN projects ON users.id = projects.user_id
		`)
		if err != nil {
			log.Println("Error querying users:", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		users := make(map[int]*models.User)
		var order []int
		for rows.Next() {
			var user models.User
			var projectID sql.NullInt64
			var projectName, projectDomain sql.NullString
			var projectUserID sql.NullInt64
			var traceflowEnabled sql.NullBool
			err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &projectID, &projectName, &projectDomain, &projectUserID, &traceflowEnabled)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			existing, ok := users[user.ID]
			if !ok {
				user.Projects = make([]models.Project, 0)
				users[user.ID] = &user
				order = append(order, user.ID)
				existing = &user
			}
			if projectID.Valid {
				existing.Projects = append(existing.Projects, models.Project{
					ID:               int(projectID.Int64),
					Name:             projectName.String,
					Domain:           projectDomain.String,
					UserID:           int(projectUserID.Int64),
					TraceflowEnabled: traceflowEnabled.Bool,
				})
			}
		}

		if err := rows.Err(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		usersSlice := make([]models.User, 0, len(order))
		for _, id := range order {
			usersSlice = append(usersSlice, *users[id])
		}

		jsonResponse, err := json.Marshal(usersSlice)
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

func GetUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.ExtractIDFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rows, err := db.Query(`
			SELECT users.id, users.name, users.email, users.role, projects.id, projects.name, projects.domain, projects.user_id, projects.traceflow_enabled
			FROM users
			LEFT JOIN projects ON users.id = projects.user_id
			WHERE users.id = $1
		`, id)
		if err != nil {
			log.Println("Error retrieving user and projects:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		var user models.User
		user.Projects = make([]models.Project, 0)

		found := false
		for rows.Next() {
			found = true
			var projectID sql.NullInt64
			var projectName, projectDomain sql.NullString
			var projectUserID sql.NullInt64
			var traceflowEnabled sql.NullBool
			err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &projectID, &projectName, &projectDomain, &projectUserID, &traceflowEnabled)
			if err != nil {
				log.Println("Error scanning user and project:", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if projectID.Valid {
				user.Projects = append(user.Projects, models.Project{
					ID:               int(projectID.Int64),
					Name:             projectName.String,
					Domain:           projectDomain.String,
					UserID:           int(projectUserID.Int64),
					TraceflowEnabled: traceflowEnabled.Bool,
				})
			}
		}

		if !found {
			http.Error(w, fmt.Sprintf("User with id %d doesn't exist", id), http.StatusNotFound)
			return
		}

		jsonResponse, err := json.Marshal(user)
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

// CreateUser registers a user. isAdmin selects the role so the same handler
// can serve both the public signup route and the admin route.
func CreateUser(db *sql.DB, isAdmin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var user models.UserInsert

		err := json.NewDecoder(r.Body).Decode(&user)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		err = user.Validate()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("Error hashing password:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		role := "user"
		if isAdmin {
			role = "admin"
		}

		_, err = db.Exec(`
			INSERT INTO users (name, email, password, role)
			VALUES ($1, $2, $3, $4)
		`, user.Name, user.Email, string(hashedPassword), role)
		if err != nil {
			log.Println("Error inserting user:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

func UpdateUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.ExtractIDFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var user models.UserInsert
		err = json.NewDecoder(r.Body).Decode(&user)
		if err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		err = user.Validate()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("Error hashing password:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		result, err := db.Exec(`
			UPDATE users
			SET name = $1, email = $2, password = $3
			WHERE id = $4
		`, user.Name, user.Email, string(hashedPassword), id)
		if err != nil {
			log.Println("Error updating user:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if rowsAffected == 0 {
			http.Error(w, fmt.Sprintf("User with id %d doesn't exist", id), http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func DeleteUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.ExtractIDFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := db.Exec(`
			DELETE FROM users
			WHERE id = $1
		`, id)
		if err != nil {
			log.Println("Error deleting user:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if rowsAffected == 0 {
			http.Error(w, fmt.Sprintf("User with id %d doesn't exist", id), http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func Login(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var login models.UserLogin

		err := json.NewDecoder(r.Body).Decode(&login)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		err = login.ValidateLogin()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var user models.User
		err = db.QueryRow(`
			SELECT id, name, email, password, role
			FROM users
			WHERE email = $1
		`, login.Email).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Role)
		if err == sql.ErrNoRows {
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		} else if err != nil {
			log.Println("Error retrieving user:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(login.Password))
		if err != nil {
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}

		accessToken, err := utils.CreateAccessToken(user.ID, user.Role, user.Name, user.Email)
		if err != nil {
			log.Println("Error creating access token:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		refreshToken, err := utils.CreateRefreshToken(user.ID)
		if err != nil {
			log.Println("Error creating refresh token:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		jsonResponse, err := json.Marshal(map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
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

func RefreshToken(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}

		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil || body.RefreshToken == "" {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		token, err := utils.ValidateToken(body.RefreshToken)
		if err != nil {
			log.Println(err.Error())
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		userId := int(claims["userId"].(float64))

		var user models.User
		err = db.QueryRow(`
			SELECT id, name, email, role
			FROM users
			WHERE id = $1
		`, userId).Scan(&user.ID, &user.Name, &user.Email, &user.Role)
		if err == sql.ErrNoRows {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		} else if err != nil {
			log.Println("Error retrieving user:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		accessToken, err := utils.CreateAccessToken(user.ID, user.Role, user.Name, user.Email)
		if err != nil {
			log.Println("Error creating access token:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		jsonResponse, err := json.Marshal(map[string]string{
			"accessToken": accessToken,
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
