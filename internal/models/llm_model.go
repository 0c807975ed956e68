package models

// LLMModel is one catalogue model as exposed over the API.
type LLMModel struct {
	Key          string `json:"key"`
	DisplayName  string `json:"displayName"`
	APIName      string `json:"apiName"`
	ProviderID   string `json:"providerId"`
	ProviderName string `json:"providerName"`
	Free         bool   `json:"free"`
	Enabled      bool   `json:"enabled"`
	// Priority is the position in the fallback chain, or -1 when not in it.
	Priority int `json:"priority"`
}

// LLMModelGroup lists the catalogue models of one provider.
type LLMModelGroup struct {
	ProviderID   string     `json:"providerId"`
	ProviderName string     `json:"providerName"`
	Models       []LLMModel `json:"models"`
}
