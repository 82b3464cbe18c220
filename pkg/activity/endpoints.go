package activity

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/util/httputil"
	"github.com/opencost/gputco/pkg/util/json"
)

// DataEnvelope is a generic wrapper struct for http response data
type DataEnvelope struct {
	Code    int         `json:"code"`
	Status  string      `json:"status"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

var (
	errUnauthorized  = errors.New("missing or invalid bearer token")
	errAdminDisabled = errors.New("access logs are disabled: no admin token is configured")
)

// ActivityEndpoints serves event ingestion and the admin access log. An empty activityToken
// accepts unauthenticated events; an empty adminToken disables the access log.
type ActivityEndpoints struct {
	logger        *Logger
	activityToken string
	adminToken    string
}

func NewActivityEndpoints(logger *Logger, activityToken, adminToken string) *ActivityEndpoints {
	return &ActivityEndpoints{
		logger:        logger,
		activityToken: activityToken,
		adminToken:    adminToken,
	}
}

func (ae *ActivityEndpoints) Register(router *httprouter.Router) {
	router.POST("/activity", ae.PostActivity)
	router.GET("/admin/access-logs", ae.GetAccessLogs)
}

func (ae *ActivityEndpoints) PostActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	if ae.activityToken != "" && !authorized(r, ae.activityToken) {
		writeData(w, http.StatusUnauthorized, nil, errUnauthorized)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeData(w, http.StatusBadRequest, nil, err)
		return
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		writeData(w, http.StatusBadRequest, nil, fmt.Errorf("decoding activity event: %w", err))
		return
	}
	if event.User == "" {
		event.User = httputil.GetUser(r)
	}

	if err := ae.logger.Record(event); err != nil {
		writeData(w, http.StatusBadRequest, nil, err)
		return
	}

	writeData(w, http.StatusOK, "success", nil)
}

func (ae *ActivityEndpoints) GetAccessLogs(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	if ae.adminToken == "" {
		writeData(w, http.StatusForbidden, nil, errAdminDisabled)
		return
	}
	if !authorized(r, ae.adminToken) {
		writeData(w, http.StatusUnauthorized, nil, errUnauthorized)
		return
	}

	qp := httputil.NewQueryParams(r.URL.Query())
	opts := QueryOpts{
		Type:  EventType(qp.Get("type", "")),
		Limit: qp.GetInt("limit", DefaultQueryLimit),
	}
	if opts.Type != "" && !opts.Type.IsValid() {
		writeData(w, http.StatusBadRequest, nil, fmt.Errorf("unknown activity event type %q", opts.Type))
		return
	}

	events, err := ae.logger.Query(opts)
	if err != nil {
		writeData(w, http.StatusInternalServerError, nil, err)
		return
	}

	writeData(w, http.StatusOK, events, nil)
}

func authorized(r *http.Request, expected string) bool {
	token, ok := httputil.BearerToken(r)
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

func writeData(w http.ResponseWriter, code int, data interface{}, err error) {
	var resp []byte

	w.WriteHeader(code)
	if err != nil {
		log.Infof("Error returned to client: %s", err.Error())
		resp, _ = json.Marshal(&DataEnvelope{
			Code:    code,
			Status:  "error",
			Message: err.Error(),
		})
	} else {
		resp, _ = json.Marshal(&DataEnvelope{
			Code:   code,
			Status: "success",
			Data:   data,
		})
	}

	w.Write(resp)
}
