package errors

import (
	"errors"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

func New(text string) error {
	return errors.New(text)
}

// ErrorCollector accumulates the failures of independent steps, such as the stages of a
// shutdown, so that one failing step does not hide the others. The zero value is ready to use.
type ErrorCollector struct {
	lock sync.Mutex
	errs *multierror.Error
}

// Report records e; nil is ignored.
func (ec *ErrorCollector) Report(e error) {
	if e == nil {
		return
	}

	ec.lock.Lock()
	ec.errs = multierror.Append(ec.errs, e)
	ec.lock.Unlock()
}

func (ec *ErrorCollector) IsError() bool {
	return len(ec.Errors()) > 0
}

// Errors returns a snapshot of what was reported, in order.
func (ec *ErrorCollector) Errors() []error {
	ec.lock.Lock()
	defer ec.lock.Unlock()

	if ec.errs == nil {
		return nil
	}
	return append([]error(nil), ec.errs.Errors...)
}

// Error is the reported messages joined by "; ", or "" when there are none.
func (ec *ErrorCollector) Error() string {
	var b strings.Builder
	for i, e := range ec.Errors() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}
