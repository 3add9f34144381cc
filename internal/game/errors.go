package game

import "net/http"

// Rejection is a request failure the client caused: wrong input, closed
// betting window, duplicate bet. Handlers translate it into the HTTP error
// envelope; Extra carries the violated limit when one applies.
type Rejection struct {
	Status  int            `json:"-"`
	Message string         `json:"message"`
	Extra   map[string]any `json:"-"`
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(message string) *Rejection {
	return &Rejection{Status: http.StatusBadRequest, Message: message}
}

func rejectNotFound(message string) *Rejection {
	return &Rejection{Status: http.StatusNotFound, Message: message}
}

func (r *Rejection) with(key string, value any) *Rejection {
	if r.Extra == nil {
		r.Extra = make(map[string]any)
	}
	r.Extra[key] = value
	return r
}
