package realtime

// negotiateResponse is the reply of POST {hub}/negotiate?negotiateVersion=1.
type negotiateResponse struct {
	ConnectionID        string `json:"connectionId"`
	ConnectionToken     string `json:"connectionToken"`
	NegotiateVersion    int    `json:"negotiateVersion"`
	AvailableTransports []struct {
		Transport       string   `json:"transport"`
		TransferFormats []string `json:"transferFormats"`
	} `json:"availableTransports"`
	URL         string `json:"url"`
	AccessToken string `json:"accessToken"`
	Error       string `json:"error"`
}

func (n negotiateResponse) supportsWebSockets() bool {
	if len(n.AvailableTransports) == 0 {
		return true
	}
	for _, t := range n.AvailableTransports {
		if t.Transport == "WebSockets" {
			return true
		}
	}
	return false
}
