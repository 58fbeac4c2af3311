package utils

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"go-marketplace/apperr"
)

// M is a JSON object body.
type M map[string]interface{}

// WriteJSON writes body with success set to true.
func WriteJSON(w http.ResponseWriter, status int, body M) {
	if body == nil {
		body = M{}
	}
	body["success"] = true
	write(w, status, body)
}

// WriteError renders err as {success:false, code, message, ...details}.
func WriteError(w http.ResponseWriter, err error) {
	e := apperr.As(err)
	if e.Kind == apperr.Internal {
		log.WithError(err).Error("request failed")
	}
	body := M{}
	for k, v := range e.Details {
		body[k] = v
	}
	body["success"] = false
	body["code"] = e.Code
	body["message"] = e.Message
	write(w, e.Kind.Status(), body)
}

// WriteFailure writes an error body for statuses outside the apperr kinds.
func WriteFailure(w http.ResponseWriter, status int, code, message string) {
	write(w, status, M{"success": false, "code": code, "message": message})
}

func write(w http.ResponseWriter, status int, body M) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithField("err", err).Error("write response body")
	}
}
