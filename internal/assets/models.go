package assets

import _ "embed"

// ModelsData is the model catalogue. Models are listed in fallback priority order.
//
//go:embed models.json
var ModelsData []byte
