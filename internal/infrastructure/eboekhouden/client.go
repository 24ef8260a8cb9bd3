// Package eboekhouden implements the accounting.Gateway contract against the
// e-Boekhouden SOAP 1.1 API. Envelopes are built with encoding/xml; every
// call carries the session and security code, and service errors are mapped
// to accounting.GatewayError so callers never parse messages.
package eboekhouden

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"rimshield/internal/domain/accounting"
	"rimshield/pkg/logger"
)

// DefaultBaseURL is the production SOAP endpoint.
const DefaultBaseURL = "https://soap.e-boekhouden.nl/soap.asmx"

// Config holds endpoint and the three-part credential set.
type Config struct {
	BaseURL       string
	Username      string
	SecurityCode1 string
	SecurityCode2 string
	Timeout       time.Duration
}

// Client is the SOAP session client.
type Client struct {
	cfg  Config
	http *http.Client
}

// Compile-time check that Client implements the gateway contract.
var _ accounting.Gateway = (*Client)(nil)

// NewClient creates a client. Missing endpoint or timeout fall back to
// defaults; missing credentials surface as an auth error at OpenSession.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// OpenSession authenticates with the three credentials.
func (c *Client) OpenSession(ctx context.Context) (string, error) {
	if c.cfg.Username == "" || c.cfg.SecurityCode1 == "" || c.cfg.SecurityCode2 == "" {
		return "", &accounting.GatewayError{
			Kind:    accounting.ErrKindAuth,
			Message: "e-boekhouden credentials are not configured",
		}
	}

	resp, err := c.call(ctx, "OpenSession", openSessionRequest{
		Username:      c.cfg.Username,
		SecurityCode1: c.cfg.SecurityCode1,
		SecurityCode2: c.cfg.SecurityCode2,
	})
	if err != nil {
		return "", err
	}
	if resp.Body.OpenSessionResponse == nil {
		return "", transportErr("OpenSession response missing result element")
	}

	result := resp.Body.OpenSessionResponse.Result
	if result.ErrorMsg.isError() {
		// A rejected login is an auth error, not a bookkeeping rule violation.
		return "", &accounting.GatewayError{
			Kind:    accounting.ErrKindAuth,
			Code:    result.ErrorMsg.LastErrorCode,
			Message: result.ErrorMsg.LastErrorDescription,
		}
	}
	if result.SessionID == "" {
		return "", transportErr("OpenSession returned empty session id")
	}
	return result.SessionID, nil
}

// CloseSession releases the session. Invalid or expired sessions are logged
// and ignored so cleanup paths can call this unconditionally.
func (c *Client) CloseSession(ctx context.Context, session string) error {
	if session == "" {
		return nil
	}
	_, err := c.call(ctx, "CloseSession", closeSessionRequest{SessionID: session})
	if err != nil {
		logger.Warn(ctx, "close session failed", "error", err)
	}
	return nil
}

// AddRelation upserts a customer relation by code.
func (c *Client) AddRelation(ctx context.Context, session string, rel accounting.Relation) (int64, error) {
	resp, err := c.call(ctx, "AddRelatie", addRelatieRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
		Relatie: wireRelatie{
			AddDatum:       time.Now().UTC().Format("2006-01-02"),
			Code:           rel.Code,
			Bedrijf:        rel.Company,
			Contactpersoon: rel.Contact,
			Email:          rel.Email,
			BP:             "B",
		},
	})
	if err != nil {
		return 0, err
	}
	if resp.Body.AddRelatieResponse == nil {
		return 0, transportErr("AddRelatie response missing result element")
	}

	result := resp.Body.AddRelatieResponse.Result
	if result.ErrorMsg.isError() {
		return 0, serviceErr(result.ErrorMsg)
	}
	return result.RelID, nil
}

// AddMutation submits one transaction.
func (c *Client) AddMutation(ctx context.Context, session string, mut accounting.Mutation) (int64, error) {
	wire, err := toWireMutatie(mut)
	if err != nil {
		return 0, err
	}

	resp, err := c.call(ctx, "AddMutatie", addMutatieRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
		Mutatie:       wire,
	})
	if err != nil {
		return 0, err
	}
	if resp.Body.AddMutatieResponse == nil {
		return 0, transportErr("AddMutatie response missing result element")
	}

	result := resp.Body.AddMutatieResponse.Result
	if result.ErrorMsg.isError() {
		return 0, serviceErr(result.ErrorMsg)
	}
	return result.Mutatienummer, nil
}

// GetLedgerAccounts returns the chart of accounts (diagnostics).
func (c *Client) GetLedgerAccounts(ctx context.Context, session string) ([]LedgerAccount, error) {
	resp, err := c.call(ctx, "GetGrootboekrekeningen", getGrootboekrekeningenRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
	})
	if err != nil {
		return nil, err
	}
	if resp.Body.GetGrootboekrekeningenResponse == nil {
		return nil, transportErr("GetGrootboekrekeningen response missing result element")
	}

	result := resp.Body.GetGrootboekrekeningenResponse.Result
	if result.ErrorMsg.isError() {
		return nil, serviceErr(result.ErrorMsg)
	}
	return result.Accounts, nil
}

// GetRelations returns relation records (diagnostics).
func (c *Client) GetRelations(ctx context.Context, session string) ([]RelatieRecord, error) {
	resp, err := c.call(ctx, "GetRelaties", getRelatiesRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
	})
	if err != nil {
		return nil, err
	}
	if resp.Body.GetRelatiesResponse == nil {
		return nil, transportErr("GetRelaties response missing result element")
	}

	result := resp.Body.GetRelatiesResponse.Result
	if result.ErrorMsg.isError() {
		return nil, serviceErr(result.ErrorMsg)
	}
	return result.Relaties, nil
}

// GetArticles returns article records (diagnostics).
func (c *Client) GetArticles(ctx context.Context, session string) ([]ArtikelRecord, error) {
	resp, err := c.call(ctx, "GetArtikelen", getArtikelenRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
	})
	if err != nil {
		return nil, err
	}
	if resp.Body.GetArtikelenResponse == nil {
		return nil, transportErr("GetArtikelen response missing result element")
	}

	result := resp.Body.GetArtikelenResponse.Result
	if result.ErrorMsg.isError() {
		return nil, serviceErr(result.ErrorMsg)
	}
	return result.Artikelen, nil
}

// call posts one SOAP 1.1 envelope and decodes the response envelope.
func (c *Client) call(ctx context.Context, action string, payload any) (*responseEnvelope, error) {
	body, err := xml.Marshal(newEnvelope(payload))
	if err != nil {
		return nil, transportErr(fmt.Sprintf("marshal %s request: %v", action, err))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, &buf)
	if err != nil {
		return nil, transportErr(fmt.Sprintf("build %s request: %v", action, err))
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapNS+"/"+action)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportErr(fmt.Sprintf("%s: %v", action, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(fmt.Sprintf("read %s response: %v", action, err))
	}

	var envelope responseEnvelope
	if err := xml.Unmarshal(data, &envelope); err != nil {
		return nil, transportErr(fmt.Sprintf("decode %s response: %v", action, err))
	}

	if envelope.Body.Fault != nil {
		return nil, &accounting.GatewayError{
			Kind:    accounting.ErrKindService,
			Code:    envelope.Body.Fault.FaultCode,
			Message: envelope.Body.Fault.FaultString,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, transportErr(fmt.Sprintf("%s: unexpected status %d", action, resp.StatusCode))
	}

	return &envelope, nil
}

// toWireMutatie maps posting lines to mutation rows. Amounts are entered
// relative to the head account: debits positive, credits negative, with the
// line's own account as the contra account. For invoice mutations the head
// account is the debtor line, which is then omitted from the rows.
func toWireMutatie(mut accounting.Mutation) (wireMutatie, error) {
	wire := wireMutatie{
		Soort:         string(mut.Kind),
		Datum:         mut.Date.Format("2006-01-02"),
		RelatieCode:   mut.RelationCode,
		Factuurnummer: mut.InvoiceNumber,
		Omschrijving:  mut.Description,
		InExBTW:       "EX",
	}

	for _, line := range mut.Lines {
		if mut.Kind == accounting.KindInvoiceSent && line.AccountCode != "" && wire.Rekening == "" && line.Side == accounting.Debit {
			// The debtor debit becomes the mutation's head account.
			wire.Rekening = line.AccountCode
			continue
		}

		amount := line.Amount
		if line.Side == accounting.Credit {
			amount = amount.Neg()
		}
		if mut.Kind == accounting.KindInvoiceSent {
			// Invoice rows are entered from the revenue side: positive amounts.
			amount = amount.Neg()
		}

		wire.MutatieRegels.Regels = append(wire.MutatieRegels.Regels, wireMutatieRegel{
			BedragInvoer:      formatAmount(amount),
			BedragExclBTW:     formatAmount(amount),
			BedragBTW:         "0.00",
			BedragInclBTW:     formatAmount(amount),
			BTWCode:           line.VATCode,
			BTWPercentage:     "0",
			TegenrekeningCode: line.AccountCode,
		})
	}

	if len(wire.MutatieRegels.Regels) == 0 {
		return wireMutatie{}, transportErr("mutation has no posting lines")
	}
	return wire, nil
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func transportErr(msg string) *accounting.GatewayError {
	return &accounting.GatewayError{Kind: accounting.ErrKindTransport, Message: msg}
}

func serviceErr(e errorMsg) *accounting.GatewayError {
	return &accounting.GatewayError{
		Kind:    accounting.ErrKindService,
		Code:    e.LastErrorCode,
		Message: e.LastErrorDescription,
	}
}
