package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atimaspi/fcbb-1-1-59/internal/log"
	"github.com/atimaspi/fcbb-1-1-59/pkg/service"
	"github.com/atimaspi/fcbb-1-1-59/pkg/storage"
	"github.com/pkg/errors"
)

// StartServer exposes the workflow engine over HTTP. The caller identity
// comes from the X-User-ID header; session handling itself is an upstream
// concern, an absent header simply resolves to the anonymous role.
func StartServer(port string, store storage.Store, sink service.Sink) error {
	svc := service.NewWorkflowService(store, sink, log.GetLogger())
	pub := service.NewPublisherService(store, log.GetLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/collections/", CollectionsHandler(svc))
	mux.HandleFunc("/publisher/run", PublisherRunHandler(pub))

	log.GetLogger().Infof("Starting content workflow server on :%s", port)
	return http.ListenAndServe(":"+port, mux)
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Content workflow server is running")
}

// CollectionsHandler routes
//
//	GET  /collections/{collection}/items
//	POST /collections/{collection}/items
//	POST /collections/{collection}/items/{id}/{submit|approve|reject|schedule}
func CollectionsHandler(svc *service.WorkflowService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// segments[0] is always "collections" under this prefix
		switch {
		case len(segments) == 3 && segments[2] == "items":
			collection := segments[1]
			switch r.Method {
			case http.MethodGet:
				listContentHTTP(w, r, svc, collection)
			case http.MethodPost:
				createContentHTTP(w, r, svc, collection)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		case len(segments) == 5 && segments[2] == "items":
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			transitionHTTP(w, r, svc, segments[1], segments[3], segments[4])
		default:
			http.NotFound(w, r)
		}
	}
}

// PublisherRunHandler triggers one publisher pass. Exposed for the
// external cron trigger; the publisher keeps no state between runs.
func PublisherRunHandler(pub *service.PublisherService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		summary, err := pub.RunDue(r.Context(), time.Now())
		if err != nil {
			log.GetLogger().Errorf("Publisher run failed: %v", err)
			http.Error(w, fmt.Sprintf("Publisher run failed: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func listContentHTTP(w http.ResponseWriter, r *http.Request, svc *service.WorkflowService, collection string) {
	items, err := svc.ListContent(collection, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func createContentHTTP(w http.ResponseWriter, r *http.Request, svc *service.WorkflowService, collection string) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	item, err := svc.CreateDraft(collection, body.Title, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func transitionHTTP(w http.ResponseWriter, r *http.Request, svc *service.WorkflowService, collection, id, action string) {
	caller := callerID(r)
	switch action {
	case "submit":
		item, err := svc.SubmitForReview(collection, id, caller)
		respondTransition(w, item, err)
	case "approve":
		item, err := svc.Approve(collection, id, caller)
		respondTransition(w, item, err)
	case "reject":
		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		item, err := svc.Reject(collection, id, caller, body.Reason)
		respondTransition(w, item, err)
	case "schedule":
		var body struct {
			ScheduledDate time.Time `json:"scheduled_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		item, err := svc.SchedulePublication(collection, id, caller, body.ScheduledDate)
		respondTransition(w, item, err)
	default:
		http.NotFound(w, r)
	}
}

func respondTransition(w http.ResponseWriter, item interface{}, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func callerID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps the workflow error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUnknownCollection):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.GetLogger().Errorf("Request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}
