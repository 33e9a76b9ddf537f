package main

import (
	"database/sql"

	"github.com/gorilla/mux"
	"github.com/oschwald/geoip2-golang"

	"github.com/atlas-hr/traceflow/handlers"
	"github.com/atlas-hr/traceflow/middleware"
)

func SetupRouter(db *sql.DB, geoipDB *geoip2.Reader) *mux.Router {

	router := mux.NewRouter()

	// ingestion routes (called by the recording pipeline, unauthenticated)
	router.HandleFunc("/api/recording", handlers.CreateRecording(db, geoipDB)).Methods("POST")
	router.HandleFunc("/api/recording/{id}", handlers.UpdateRecording(db)).Methods("PUT")
	router.HandleFunc("/api/interaction", handlers.CreateInteractionEvent(db)).Methods("POST")

	// recording query routes
	router.Handle("/api/recordings/{domain}", middleware.AdminOrProjectOwnerMiddleware(db)(middleware.TraceflowGuard(db)(handlers.GetRecordings(db)))).Methods("GET")
	router.Handle("/api/recording/{id}", middleware.AuthMiddleware(handlers.GetRecording(db))).Methods("GET")
	router.Handle("/api/recording/{id}", middleware.AdminMiddleware(handlers.DeleteRecording(db))).Methods("DELETE")

	// clickstream and dashboard routes
	router.Handle("/api/clickstream/{domain}", middleware.AdminOrProjectOwnerMiddleware(db)(middleware.TraceflowGuard(db)(handlers.GetClickstream(db)))).Methods("GET")
	router.Handle("/api/dashboard/heatmap/{domain}", middleware.AdminOrProjectOwnerMiddleware(db)(middleware.TraceflowGuard(db)(handlers.GetHeatmap(db)))).Methods("GET")
	router.Handle("/api/dashboard/forms/{domain}", middleware.AdminOrProjectOwnerMiddleware(db)(middleware.TraceflowGuard(db)(handlers.GetFormStats(db)))).Methods("GET")

	// user routes
	router.Handle("/api/users", middleware.AdminMiddleware(handlers.GetUsers(db))).Methods("GET")
	router.Handle("/api/user/{id}", middleware.AdminOrOwnerMiddleware(handlers.GetUser(db))).Methods("GET")
	router.HandleFunc("/api/user", handlers.CreateUser(db, false)).Methods("POST") // false to indicate that we'll create a regular user
	router.Handle("/api/user/{id}", middleware.AdminOrOwnerMiddleware(handlers.UpdateUser(db))).Methods("PUT")
	router.Handle("/api/user/{id}", middleware.AdminOrOwnerMiddleware(handlers.DeleteUser(db))).Methods("DELETE")

	// auth routes
	router.HandleFunc("/api/user/login", handlers.Login(db)).Methods("POST")
	router.HandleFunc("/api/user/refresh-token", handlers.RefreshToken(db)).Methods("POST")

	// admin user routes
	router.Handle("/api/admin/user", middleware.AdminMiddleware(handlers.CreateUser(db, true))).Methods("POST") // true to indicate that we'll create an admin user

	// project routes
	router.Handle("/api/projects", middleware.AdminMiddleware(handlers.GetProjects(db))).Methods("GET")
	router.Handle("/api/projects/user/{id}", middleware.AdminOrOwnerMiddleware(handlers.GetUserProjects(db))).Methods("GET")
	router.Handle("/api/project/{id}", middleware.AuthMiddleware(handlers.GetProject(db))).Methods("GET")
	router.Handle("/api/project", middleware.AuthMiddleware(handlers.CreateProject(db))).Methods("POST")
	router.Handle("/api/project/{id}", middleware.AuthMiddleware(handlers.UpdateProject(db))).Methods("PUT")
	router.Handle("/api/project/{id}", middleware.AuthMiddleware(handlers.DeleteProject(db))).Methods("DELETE")

	return router
}
