package middleware

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/atlas-hr/traceflow/utils"
)

// AdminOrProjectOwnerMiddleware lets the request through when the caller is an
// admin or owns the project named by the {domain} URL variable.
func AdminOrProjectOwnerMiddleware(db *sql.DB) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := bearerClaims(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			role, _ := claims["role"].(string)
			if role == "admin" {
				next.ServeHTTP(w, r)
				return
			}

			domain, err := utils.ExtractDomainFromURL(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			userId := int(claims["userId"].(float64))

			var ownerID int
			err = db.QueryRow("SELECT user_id FROM projects WHERE domain = $1", domain).Scan(&ownerID)
			if err == sql.ErrNoRows {
				http.Error(w, fmt.Sprintf("Project with domain %s doesn't exist", domain), http.StatusNotFound)
				return
			} else if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if ownerID != userId {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TraceflowGuard gates the analytics routes on the project's entitlement flag.
// Projects without the analytics add-on get a 403 even for their owner.
func TraceflowGuard(db *sql.DB) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			domain, err := utils.ExtractDomainFromURL(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			var enabled bool
			err = db.QueryRow("SELECT traceflow_enabled FROM projects WHERE domain = $1", domain).Scan(&enabled)
			if err == sql.ErrNoRows {
				http.Error(w, fmt.Sprintf("Project with domain %s doesn't exist", domain), http.StatusNotFound)
				return
			} else if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if !enabled {
				http.Error(w, "Session analytics is not enabled for this project", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
