package env

import (
	"os"
	"strconv"
	"time"

	"github.com/opencost/gputco/pkg/util/mapper"
)

// osEnv is a mapper.Getter over the process environment.
type osEnv struct{}

func (osEnv) Get(key string) string {
	return os.Getenv(key)
}

func (osEnv) Has(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

// envMapper reads the environment on every call, so values set after start-up are observed.
var envMapper = mapper.NewMapper(osEnv{})

// Get returns the value of key, or defaultValue when it is unset or empty.
func Get(key string, defaultValue string) string {
	return envMapper.Get(key, defaultValue)
}

// GetInt parses key as an int, returning defaultValue when it is unset or malformed.
func GetInt(key string, defaultValue int) int {
	return envMapper.GetInt(key, defaultValue)
}

func GetFloat64(key string, defaultValue float64) float64 {
	return envMapper.GetFloat64(key, defaultValue)
}

func GetBool(key string, defaultValue bool) bool {
	return envMapper.GetBool(key, defaultValue)
}

// GetDuration accepts either a Go duration ("90s", "2m") or a plain number of seconds. Anything
// else yields defaultValue.
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	r := os.Getenv(key)
	if secs, err := strconv.Atoi(r); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(r); err == nil {
		return d
	}
	return defaultValue
}

// GetList splits a comma separated value, dropping empty entries. Unset yields nil.
func GetList(key string) []string {
	return envMapper.GetList(key, ",")
}
