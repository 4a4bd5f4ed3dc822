package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type progressBegin struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Cancellable bool   `json:"cancellable"`
	Message     string `json:"message,omitempty"`
	Percentage  uint32 `json:"percentage"`
}

type progressReport struct {
	Kind       string `json:"kind"`
	Message    string `json:"message,omitempty"`
	Percentage uint32 `json:"percentage"`
}

type progressEnd struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// progress sends $/progress notifications for a client-initiated work done
// token. A nil token makes every method a no-op.
type progress struct {
	notify glsp.NotifyFunc
	token  *protocol.ProgressToken
	total  int
}

func newProgress(notify glsp.NotifyFunc, token *protocol.ProgressToken, total int) *progress {
	return &progress{notify: notify, token: token, total: total}
}

func (p *progress) send(value any) {
	if p.token == nil || p.notify == nil {
		return
	}
	p.notify(protocol.ServerProgress, protocol.ProgressParams{Token: *p.token, Value: value})
}

func (p *progress) Begin(title string) {
	p.send(progressBegin{Kind: "begin", Title: title})
}

func (p *progress) Report(done int) {
	pct := uint32(100)
	if p.total > 0 {
		pct = uint32(done * 100 / p.total)
	}
	p.send(progressReport{
		Kind:       "report",
		Message:    fmt.Sprintf("Analyzed %d/%d files", done, p.total),
		Percentage: pct,
	})
}

func (p *progress) End(message string) {
	p.send(progressEnd{Kind: "end", Message: message})
}
