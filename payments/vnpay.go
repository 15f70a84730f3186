package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ictZone = time.FixedZone("ICT", 7*60*60)

type VNPayGateway struct {
	tmnCode    string
	hashSecret string
	payURL     string
	returnURL  string
}

func NewVNPayGateway(tmnCode, hashSecret, payURL, returnURL string) *VNPayGateway {
	return &VNPayGateway{
		tmnCode:    tmnCode,
		hashSecret: hashSecret,
		payURL:     payURL,
		returnURL:  returnURL,
	}
}

func (g *VNPayGateway) Name() string { return "vnpay" }

// hashData builds the canonical signing string: vnp_ params sorted by key,
// values query-escaped, secure-hash fields and empty values excluded.
func (g *VNPayGateway) hashData(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" || params[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}

func (g *VNPayGateway) sign(params map[string]string) string {
	mac := hmac.New(sha512.New, []byte(g.hashSecret))
	mac.Write([]byte(g.hashData(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *VNPayGateway) VerifySignature(params map[string]string) bool {
	provided := params["vnp_SecureHash"]
	if provided == "" {
		return false
	}
	expected := g.sign(params)
	return hmac.Equal([]byte(strings.ToLower(provided)), []byte(expected))
}

// BuildPaymentURL returns the signed redirect URL for paying one
// appointment. The appointment id is carried as vnp_TxnRef and comes
// back on the IPN. VNPay expects the amount multiplied by 100.
func (g *VNPayGateway) BuildPaymentURL(appointmentID string, amount float64, clientIP string) string {
	now := time.Now().In(ictZone)
	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.tmnCode,
		"vnp_Amount":     strconv.FormatInt(int64(amount*100), 10),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     appointmentID,
		"vnp_OrderInfo":  fmt.Sprintf("Thanh toan lich hen %s", appointmentID),
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  g.returnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": now.Format("20060102150405"),
		"vnp_ExpireDate": now.Add(15 * time.Minute).Format("20060102150405"),
	}

	query := g.hashData(params)
	return g.payURL + "?" + query + "&vnp_SecureHash=" + g.sign(params)
}

// ExtractOutcome maps a verified IPN payload. Response code "00" means
// the transaction succeeded; anything else is a gateway-reported failure.
func (g *VNPayGateway) ExtractOutcome(params map[string]string) (Outcome, error) {
	ref := params["vnp_TxnRef"]
	if ref == "" {
		return Outcome{}, fmt.Errorf("vnpay payload missing vnp_TxnRef")
	}

	code := params["vnp_ResponseCode"]
	out := Outcome{
		AppointmentRef: ref,
		Succeeded:      code == "00",
		TransactionNo:  params["vnp_TransactionNo"],
	}
	if raw := params["vnp_Amount"]; raw != "" {
		cents, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Outcome{}, fmt.Errorf("vnpay payload has invalid vnp_Amount %q", raw)
		}
		out.Amount = float64(cents) / 100
	}
	if !out.Succeeded {
		out.FailureCode = code
	}
	return out, nil
}
