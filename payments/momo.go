package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type MoMoGateway struct {
	partnerCode string
	accessKey   string
	secretKey   string
	endpoint    string
	redirectURL string
	ipnURL      string
	client      *http.Client
}

func NewMoMoGateway(partnerCode, accessKey, secretKey, endpoint, redirectURL, ipnURL string) *MoMoGateway {
	return &MoMoGateway{
		partnerCode: partnerCode,
		accessKey:   accessKey,
		secretKey:   secretKey,
		endpoint:    endpoint,
		redirectURL: redirectURL,
		ipnURL:      ipnURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *MoMoGateway) Name() string { return "momo" }

func (g *MoMoGateway) hmacSHA256(data string) string {
	mac := hmac.New(sha256.New, []byte(g.secretKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// ipn field order is fixed by MoMo; the raw signature string must list
// them alphabetically with the accessKey prepended.
var momoIPNFields = []string{
	"amount", "extraData", "message", "orderId", "orderInfo", "orderType",
	"partnerCode", "payType", "requestId", "responseTime", "resultCode", "transId",
}

func (g *MoMoGateway) VerifySignature(params map[string]string) bool {
	provided := params["signature"]
	if provided == "" {
		return false
	}

	raw := "accessKey=" + g.accessKey
	for _, f := range momoIPNFields {
		raw += "&" + f + "=" + params[f]
	}
	return hmac.Equal([]byte(provided), []byte(g.hmacSHA256(raw)))
}

// ExtractOutcome maps a verified IPN payload. orderInfo carries the
// appointment id; resultCode 0 means the payment succeeded.
func (g *MoMoGateway) ExtractOutcome(params map[string]string) (Outcome, error) {
	ref := params["orderInfo"]
	if ref == "" {
		return Outcome{}, fmt.Errorf("momo payload missing orderInfo")
	}

	code := params["resultCode"]
	out := Outcome{
		AppointmentRef: ref,
		Succeeded:      code == "0",
		TransactionNo:  params["transId"],
	}
	if raw := params["amount"]; raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Outcome{}, fmt.Errorf("momo payload has invalid amount %q", raw)
		}
		out.Amount = amount
	}
	if !out.Succeeded {
		out.FailureCode = code
	}
	return out, nil
}

// ParseMoMoIPN flattens the JSON body into the string map the adapter
// signs over. json.Number keeps the exact textual form of numeric
// fields, which the signature depends on.
func ParseMoMoIPN(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("cannot parse momo IPN body: %w", err)
	}

	params := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			params[k] = val
		case json.Number:
			params[k] = val.String()
		case bool:
			params[k] = strconv.FormatBool(val)
		case nil:
			params[k] = ""
		default:
			return nil, fmt.Errorf("momo IPN field %q has unsupported type", k)
		}
	}
	return params, nil
}

type MoMoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      string `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type MoMoCreateResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	PayURL       string `json:"payUrl"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	ResponseTime int64  `json:"responseTime"`
}

// CreatePayment asks MoMo for a payUrl. The orderId must be unique per
// attempt, so it gets a fresh suffix; the appointment id travels in
// orderInfo and is what the IPN reconciles on.
func (g *MoMoGateway) CreatePayment(appointmentID string, amount float64) (*MoMoCreateResponse, error) {
	requestID := uuid.NewString()
	orderID := fmt.Sprintf("%s-%d", appointmentID, time.Now().UnixNano())
	amountStr := strconv.FormatFloat(amount, 'f', 0, 64)

	raw := "accessKey=" + g.accessKey +
		"&amount=" + amountStr +
		"&extraData=" +
		"&ipnUrl=" + g.ipnURL +
		"&orderId=" + orderID +
		"&orderInfo=" + appointmentID +
		"&partnerCode=" + g.partnerCode +
		"&redirectUrl=" + g.redirectURL +
		"&requestId=" + requestID +
		"&requestType=captureWallet"

	payload := MoMoCreateRequest{
		PartnerCode: g.partnerCode,
		AccessKey:   g.accessKey,
		RequestID:   requestID,
		Amount:      amountStr,
		OrderID:     orderID,
		OrderInfo:   appointmentID,
		RedirectURL: g.redirectURL,
		IpnURL:      g.ipnURL,
		RequestType: "captureWallet",
		Lang:        "vi",
		Signature:   g.hmacSHA256(raw),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal momo create payload: %w", err)
	}

	resp, err := g.client.Post(g.endpoint+"/v2/gateway/api/create", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to send momo create request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read momo create response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("momo API returned non-200 status: %d", resp.StatusCode)
	}

	var createResp MoMoCreateResponse
	if err := json.Unmarshal(respBody, &createResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal momo create response: %w", err)
	}
	if createResp.ResultCode != 0 {
		return nil, fmt.Errorf("momo create payment failed: %s", createResp.Message)
	}
	return &createResp, nil
}
