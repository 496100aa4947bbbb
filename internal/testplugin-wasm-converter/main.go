//go:build wasip1

// Command testplugin-wasm-converter is a converter plugin used by the wasm provider tests.
// Documents have the form {"title": "..."} and their text is the upper-cased title.
package main

import (
	"encoding/json"
	"strings"

	"github.com/extism/go-pdk"
)

type document struct {
	Title string `json:"title"`
}

type toTextRequest struct {
	Document document `json:"document"`
	URLs     *struct {
		BaseURL string `json:"baseUrl"`
		IIIFURL string `json:"iiifUrl"`
	} `json:"urls"`
}

//go:wasmexport name
func Name() int32 {
	pdk.OutputString("upper")
	return 0
}

//go:wasmexport convert_to_text
func ConvertToText() int32 {
	var request toTextRequest
	if err := json.Unmarshal(pdk.Input(), &request); err != nil {
		pdk.SetError(err)
		return 1
	}

	text := strings.ToUpper(request.Document.Title)
	if request.URLs != nil && request.URLs.BaseURL != "" {
		text += " " + request.URLs.BaseURL
	}

	pdk.OutputString(text)
	return 0
}

//go:wasmexport convert_from_text
func ConvertFromText() int32 {
	output, err := json.Marshal(document{Title: strings.ToLower(pdk.InputString())})
	if err != nil {
		pdk.SetError(err)
		return 1
	}

	pdk.Output(output)
	return 0
}

func main() {}
