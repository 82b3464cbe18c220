package overrides

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/util/json"
)

// DataEnvelope is a generic wrapper struct for http response data
type DataEnvelope struct {
	Code    int         `json:"code"`
	Status  string      `json:"status"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// AuditFunc is told about every attempted change made through the endpoints.
type AuditFunc func(r *http.Request, change string, err error)

type Endpoints struct {
	store *Store
	audit AuditFunc
}

// NewEndpoints creates the HTTP handlers for a Store. audit may be nil.
func NewEndpoints(store *Store, audit AuditFunc) *Endpoints {
	return &Endpoints{
		store: store,
		audit: audit,
	}
}

// Register adds the override routes to router.
func (e *Endpoints) Register(router *httprouter.Router) {
	router.GET("/overrides", e.GetOverrides)
	router.PUT("/overrides", e.PutOverrides)
	router.DELETE("/overrides", e.DeleteOverrides)
	router.PUT("/overrides/:key", e.PutOverride)
	router.GET("/serviceTiers/distribution", e.GetDistribution)
	router.PUT("/serviceTiers/distribution", e.PutDistribution)
	router.GET("/serviceTiers/modifiers", e.GetModifiers)
	router.PUT("/serviceTiers/modifiers", e.PutModifiers)
}

func (e *Endpoints) GetOverrides(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	writeData(w, e.store.Overrides(), nil)
}

func (e *Endpoints) PutOverrides(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	var values map[string]float64
	if err := decodeBody(r, &values); err != nil {
		writeData(w, nil, err)
		return
	}

	err := e.store.SetOverrides(values)
	e.record(r, "overrides replaced", err)
	if err != nil {
		writeData(w, nil, err)
		return
	}

	writeData(w, e.store.Overrides(), nil)
}

func (e *Endpoints) PutOverride(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	key := ps.ByName("key")
	if key == "" {
		writeData(w, nil, errors.New("override key is required"))
		return
	}

	var body struct {
		Value *float64 `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeData(w, nil, err)
		return
	}
	if body.Value == nil {
		writeData(w, nil, fmt.Errorf("override %q requires a value", key))
		return
	}

	err := e.store.SetOverride(key, *body.Value)
	e.record(r, fmt.Sprintf("override %s set", key), err)
	if err != nil {
		writeData(w, nil, err)
		return
	}

	writeData(w, e.store.Overrides(), nil)
}

func (e *Endpoints) DeleteOverrides(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	err := e.store.DeleteOverrides()
	e.record(r, "overrides reset", err)
	if err != nil {
		writeData(w, nil, err)
		return
	}

	writeData(w, "success", nil)
}

func (e *Endpoints) GetDistribution(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	writeData(w, e.store.Distribution(), nil)
}

func (e *Endpoints) PutDistribution(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	var dist map[string]float64
	if err := decodeBody(r, &dist); err != nil {
		writeData(w, nil, err)
		return
	}

	err := e.store.SetDistribution(dist)
	e.record(r, "service tier distribution replaced", err)
	if err != nil {
		writeData(w, nil, err)
		return
	}

	writeData(w, e.store.Distribution(), nil)
}

func (e *Endpoints) GetModifiers(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	writeData(w, e.store.Modifiers(), nil)
}

func (e *Endpoints) PutModifiers(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	var mods Modifiers
	if err := decodeBody(r, &mods); err != nil {
		writeData(w, nil, err)
		return
	}

	err := e.store.SetModifiers(mods)
	e.record(r, "service modifiers replaced", err)
	if err != nil {
		writeData(w, nil, err)
		return
	}

	writeData(w, e.store.Modifiers(), nil)
}

func (e *Endpoints) record(r *http.Request, change string, err error) {
	if e.audit != nil {
		e.audit(r, change, err)
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func writeData(w http.ResponseWriter, data interface{}, err error) {
	var resp []byte

	if err != nil {
		log.Infof("Error returned to client: %s", err.Error())
		w.WriteHeader(http.StatusBadRequest)
		resp, _ = json.Marshal(&DataEnvelope{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: err.Error(),
		})
	} else {
		resp, _ = json.Marshal(&DataEnvelope{
			Code:   http.StatusOK,
			Status: "success",
			Data:   data,
		})
	}

	w.Write(resp)
}
