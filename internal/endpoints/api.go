package endpoints

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status    bool        `json:"status"`
	Value     interface{} `json:"value,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode int         `json:"error_code"`
}

func (res APIResponse) WriteErrorResponse(w http.ResponseWriter, err error) {
	res.WriteErrorResponseWithStatusCode(w, err, http.StatusInternalServerError)
}

func (res APIResponse) WriteErrorResponseWithStatusCode(w http.ResponseWriter, err error, statusCode int) {
	res.Status = false
	res.Value = nil
	res.Error = err.Error()
	if statusCode == http.StatusUnauthorized {
		res.ErrorCode = API_UNAUTHORIZED
	} else {
		res.ErrorCode = GetErrorCode(err)
	}
	res.write(w, statusCode)
}

func (res APIResponse) WriteResultResponse(w http.ResponseWriter, result interface{}) {
	res.WriteResultResponseWithStatusCode(w, result, http.StatusOK)
}

func (res APIResponse) WriteResultResponseWithStatusCode(w http.ResponseWriter, result interface{}, statusCode int) {
	res.Status = true
	res.Value = result
	res.Error = ""
	res.ErrorCode = GetErrorCode(nil)
	res.write(w, statusCode)
}

func (res APIResponse) write(w http.ResponseWriter, statusCode int) {
	body, _ := json.Marshal(res)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(statusCode)
	w.Write(body)
}
