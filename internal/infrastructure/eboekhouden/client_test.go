package eboekhouden

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimshield/internal/domain/accounting"
)

func envelopeWith(inner string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>%s</soap:Body>
</soap:Envelope>`, inner)
}

func okErrorMsg() string {
	return `<ErrorMsg><LastErrorCode></LastErrorCode><LastErrorDescription></LastErrorDescription></ErrorMsg>`
}

type capturedRequest struct {
	action string
	body   string
}

// newTestClient points a client at a server answering every call with the
// given response body, capturing what was sent.
func newTestClient(t *testing.T, respond func(action string) (int, string)) (*Client, *[]capturedRequest) {
	t.Helper()

	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		action := r.Header.Get("SOAPAction")
		captured = append(captured, capturedRequest{action: action, body: string(data)})

		status, body := respond(action)
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:       srv.URL,
		Username:      "tester",
		SecurityCode1: "code1",
		SecurityCode2: "code2",
		Timeout:       5 * time.Second,
	})
	return client, &captured
}

func gatewayKind(t *testing.T, err error) accounting.ErrorKind {
	t.Helper()
	var gerr *accounting.GatewayError
	require.True(t, errors.As(err, &gerr), "expected GatewayError, got %v", err)
	return gerr.Kind
}

func TestOpenSession(t *testing.T) {
	client, captured := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, envelopeWith(`<OpenSessionResponse xmlns="http://www.e-boekhouden.nl/soap">
  <OpenSessionResult>` + okErrorMsg() + `<SessionID>{D5C1-42}</SessionID></OpenSessionResult>
</OpenSessionResponse>`)
	})

	session, err := client.OpenSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{D5C1-42}", session)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, "http://www.e-boekhouden.nl/soap/OpenSession", req.action)
	assert.Contains(t, req.body, "<Username>tester</Username>")
	assert.Contains(t, req.body, "<SecurityCode1>code1</SecurityCode1>")
	assert.Contains(t, req.body, "<SecurityCode2>code2</SecurityCode2>")
}

func TestOpenSession_MissingCredentials(t *testing.T) {
	client, captured := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, envelopeWith("")
	})
	client.cfg.SecurityCode1 = ""

	_, err := client.OpenSession(context.Background())
	assert.Equal(t, accounting.ErrKindAuth, gatewayKind(t, err))

	// Credentials are checked before any network traffic.
	assert.Empty(t, *captured)
}

func TestOpenSession_Rejected(t *testing.T) {
	client, _ := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, envelopeWith(`<OpenSessionResponse>
  <OpenSessionResult>
    <ErrorMsg><LastErrorCode>AUTH001</LastErrorCode><LastErrorDescription>Onbekende gebruiker</LastErrorDescription></ErrorMsg>
  </OpenSessionResult>
</OpenSessionResponse>`)
	})

	_, err := client.OpenSession(context.Background())
	require.Error(t, err)
	var gerr *accounting.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, accounting.ErrKindAuth, gerr.Kind)
	assert.Equal(t, "AUTH001", gerr.Code)
	assert.Contains(t, gerr.Message, "Onbekende gebruiker")
}

func TestCloseSession_Tolerant(t *testing.T) {
	client, captured := newTestClient(t, func(string) (int, string) {
		return http.StatusInternalServerError, "boom"
	})

	// A failed close is logged, never surfaced.
	assert.NoError(t, client.CloseSession(context.Background(), "session-1"))
	assert.Len(t, *captured, 1)

	// An empty session skips the call entirely.
	assert.NoError(t, client.CloseSession(context.Background(), ""))
	assert.Len(t, *captured, 1)
}

func TestAddRelation(t *testing.T) {
	client, captured := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, envelopeWith(`<AddRelatieResponse>
  <AddRelatieResult>` + okErrorMsg() + `<Rel_ID>4711</Rel_ID></AddRelatieResult>
</AddRelatieResponse>`)
	})

	relID, err := client.AddRelation(context.Background(), "session-1", accounting.Relation{
		Code:    "WEB-cust-1",
		Company: "Jan de Vries",
		Contact: "Jan de Vries",
		Email:   "jan@example.nl",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4711), relID)

	req := (*captured)[0]
	assert.Contains(t, req.body, "<SessionID>session-1</SessionID>")
	assert.Contains(t, req.body, "<Code>WEB-cust-1</Code>")
	assert.Contains(t, req.body, "<BP>B</BP>")
}

func TestAddMutation_Memorial(t *testing.T) {
	client, captured := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, envelopeWith(`<AddMutatieResponse>
  <AddMutatieResult>` + okErrorMsg() + `<Mutatienummer>90210</Mutatienummer></AddMutatieResult>
</AddMutatieResponse>`)
	})

	mutatieID, err := client.AddMutation(context.Background(), "session-1", accounting.Mutation{
		Kind:          accounting.KindMemorial,
		Date:          time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		InvoiceNumber: "C-2026-00001",
		RelationCode:  "WEB-cust-1",
		Description:   "Creditnota C-2026-00001",
		Lines: []accounting.Line{
			{AccountCode: "8000", Amount: decimal.NewFromFloat(100), Side: accounting.Debit, VATCode: "HOOG_VERK_21"},
			{AccountCode: "1630", Amount: decimal.NewFromFloat(21), Side: accounting.Debit},
			{AccountCode: "1300", Amount: decimal.NewFromFloat(121), Side: accounting.Credit},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(90210), mutatieID)

	body := (*captured)[0].body
	assert.Contains(t, body, "<Soort>Memoriaal</Soort>")
	assert.Contains(t, body, "<Datum>2026-03-14</Datum>")
	assert.Contains(t, body, "<Factuurnummer>C-2026-00001</Factuurnummer>")
	// Debits enter positive, credits negative.
	assert.Contains(t, body, "<BedragInvoer>100.00</BedragInvoer>")
	assert.Contains(t, body, "<BedragInvoer>-121.00</BedragInvoer>")
	assert.Contains(t, body, "<TegenrekeningCode>1630</TegenrekeningCode>")
	assert.Contains(t, body, "<BTWCode>HOOG_VERK_21</BTWCode>")
}

func TestAddMutation_InvoiceHeadAccount(t *testing.T) {
	client, captured := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, envelopeWith(`<AddMutatieResponse>
  <AddMutatieResult>` + okErrorMsg() + `<Mutatienummer>1</Mutatienummer></AddMutatieResult>
</AddMutatieResponse>`)
	})

	_, err := client.AddMutation(context.Background(), "session-1", accounting.Mutation{
		Kind:          accounting.KindInvoiceSent,
		Date:          time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		InvoiceNumber: "ORD-2026-1001",
		RelationCode:  "WEB-cust-1",
		Lines: []accounting.Line{
			{AccountCode: "1300", Amount: decimal.NewFromFloat(121), Side: accounting.Debit},
			{AccountCode: "8000", Amount: decimal.NewFromFloat(100), Side: accounting.Credit, VATCode: "HOOG_VERK_21"},
			{AccountCode: "1630", Amount: decimal.NewFromFloat(21), Side: accounting.Credit},
		},
	})
	require.NoError(t, err)

	body := (*captured)[0].body
	assert.Contains(t, body, "<Soort>FactuurVerstuurd</Soort>")
	// The debtor debit becomes the head account and gets no row of its own.
	assert.Contains(t, body, "<Rekening>1300</Rekening>")
	assert.NotContains(t, body, "<TegenrekeningCode>1300</TegenrekeningCode>")
	// Invoice rows enter from the revenue side, so credits come out positive.
	assert.Contains(t, body, "<BedragInvoer>100.00</BedragInvoer>")
	assert.Contains(t, body, "<BedragInvoer>21.00</BedragInvoer>")
	assert.NotContains(t, body, "<BedragInvoer>-")
}

func TestAddMutation_NoLines(t *testing.T) {
	client, captured := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, envelopeWith("")
	})

	_, err := client.AddMutation(context.Background(), "session-1", accounting.Mutation{
		Kind: accounting.KindMemorial,
		Date: time.Now(),
	})
	assert.Equal(t, accounting.ErrKindTransport, gatewayKind(t, err))
	assert.Empty(t, *captured)
}

func TestAddMutation_ServiceError(t *testing.T) {
	client, _ := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, envelopeWith(`<AddMutatieResponse>
  <AddMutatieResult>
    <ErrorMsg><LastErrorCode>MUT012</LastErrorCode><LastErrorDescription>Grootboekrekening onbekend</LastErrorDescription></ErrorMsg>
  </AddMutatieResult>
</AddMutatieResponse>`)
	})

	_, err := client.AddMutation(context.Background(), "session-1", accounting.Mutation{
		Kind: accounting.KindMemorial,
		Date: time.Now(),
		Lines: []accounting.Line{
			{AccountCode: "9999", Amount: decimal.NewFromFloat(1), Side: accounting.Debit},
		},
	})
	require.Error(t, err)
	var gerr *accounting.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, accounting.ErrKindService, gerr.Kind)
	assert.Equal(t, "MUT012", gerr.Code)
}

func TestCall_SOAPFault(t *testing.T) {
	client, _ := newTestClient(t, func(string) (int, string) {
		return http.StatusInternalServerError, envelopeWith(`<soap:Fault>
  <faultcode>soap:Server</faultcode>
  <faultstring>Server was unable to process request.</faultstring>
</soap:Fault>`)
	})

	_, err := client.OpenSession(context.Background())
	require.Error(t, err)
	var gerr *accounting.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, accounting.ErrKindService, gerr.Kind)
	assert.Contains(t, gerr.Message, "unable to process")
}

func TestCall_BadStatus(t *testing.T) {
	client, _ := newTestClient(t, func(string) (int, string) {
		return http.StatusBadGateway, envelopeWith("")
	})

	_, err := client.OpenSession(context.Background())
	assert.Equal(t, accounting.ErrKindTransport, gatewayKind(t, err))
}

func TestCall_MalformedResponse(t *testing.T) {
	client, _ := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, "<not-xml"
	})

	_, err := client.OpenSession(context.Background())
	assert.Equal(t, accounting.ErrKindTransport, gatewayKind(t, err))
}

func TestCall_ConnectionRefused(t *testing.T) {
	client := NewClient(Config{
		BaseURL:       "http://127.0.0.1:1",
		Username:      "tester",
		SecurityCode1: "code1",
		SecurityCode2: "code2",
		Timeout:       time.Second,
	})

	_, err := client.OpenSession(context.Background())
	assert.Equal(t, accounting.ErrKindTransport, gatewayKind(t, err))
}

func TestGetLedgerAccounts(t *testing.T) {
	client, _ := newTestClient(t, func(string) (int, string) {
		return http.StatusOK, envelopeWith(`<GetGrootboekrekeningenResponse>
  <GetGrootboekrekeningenResult>` + okErrorMsg() + `
    <Rekeningen>
      <cGrootboekrekening><ID>1</ID><Code>8000</Code><Omschrijving>Omzet hoog</Omschrijving><Categorie>VW</Categorie></cGrootboekrekening>
      <cGrootboekrekening><ID>2</ID><Code>1300</Code><Omschrijving>Debiteuren</Omschrijving><Categorie>BAL</Categorie></cGrootboekrekening>
    </Rekeningen>
  </GetGrootboekrekeningenResult>
</GetGrootboekrekeningenResponse>`)
	})

	accounts, err := client.GetLedgerAccounts(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "8000", accounts[0].Code)
	assert.Equal(t, "Omzet hoog", accounts[0].Omschrijving)
	assert.Equal(t, "Debiteuren", accounts[1].Omschrijving)
}
