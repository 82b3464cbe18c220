package json

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

var Marshal = jsoniter.ConfigCompatibleWithStandardLibrary.Marshal
var MarshalIndent = jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent
var Unmarshal = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal
var NewDecoder = jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder
var NewEncoder = jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder

type Marshaler json.Marshaler
type Unmarshaler json.Unmarshaler

type RawMessage = json.RawMessage
