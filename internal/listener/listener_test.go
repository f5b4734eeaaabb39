package listener

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contactkeval/optionprob/internal/domain"
)

type fakeWriter struct {
	applied []domain.QuoteEvent
}

func (f *fakeWriter) ApplyQuote(q domain.QuoteEvent) (domain.OptionState, bool) {
	f.applied = append(f.applied, q)
	return domain.OptionState{}, true
}

func (f *fakeWriter) Clear() {
	f.applied = nil
}

func TestHandleMessage_ParsesBatch(t *testing.T) {
	fw := &fakeWriter{}
	l := &Listener{store: fw}

	payload := []byte(`[{"ev":"Q","sym":"O:AAPL260117C00230000","bp":5.0,"ap":5.2,"t":1700000000000}]`)
	l.handleMessage(payload)

	require.Len(t, fw.applied, 1)
	require.Equal(t, "O:AAPL260117C00230000", fw.applied[0].OCCSymbol)
	require.InDelta(t, 5.0, fw.applied[0].Bid, 1e-9)
}

func TestHandleMessage_ParsesSingleObject(t *testing.T) {
	fw := &fakeWriter{}
	l := &Listener{store: fw}

	payload := []byte(`{"ev":"Q","sym":"O:AAPL260117P00230000","bp":4.0,"ap":4.2,"t":1700000000000}`)
	l.handleMessage(payload)

	require.Len(t, fw.applied, 1)
}

func TestHandleMessage_SkipsNonQuoteEvents(t *testing.T) {
	fw := &fakeWriter{}
	l := &Listener{store: fw}

	payload := []byte(`[{"ev":"status","sym":"auth_success"}]`)
	l.handleMessage(payload)

	require.Empty(t, fw.applied)
}

func TestHandleMessage_DiscardsGarbage(t *testing.T) {
	fw := &fakeWriter{}
	l := &Listener{store: fw}

	l.handleMessage([]byte(`not json`))
	require.Empty(t, fw.applied)
}
