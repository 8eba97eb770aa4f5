package whatsappsvc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/proclass/backend/core"
)

var (
	host     = "https://api.twilio.com"
	endpoint = "/2010-04-01/Accounts/%s/Messages.json"
)

type twilioService struct {
	accountSID string
	authToken  string
	from       string
}

var _ core.MessagingService = (*twilioService)(nil)

// NewTwilioService sends WhatsApp messages through the Twilio Messages API
// using the given account credentials and sender number.
func NewTwilioService(accountSID, authToken, from string) *twilioService {
	return &twilioService{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
	}
}

type twilioResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"message"`
}

func (svc *twilioService) Send(ctx context.Context, msg core.TextMessage) (string, error) {
	form := make(url.Values)
	form.Set("From", "whatsapp:"+svc.from)
	form.Set("To", "whatsapp:+"+strings.TrimPrefix(msg.To, "+"))
	form.Set("Body", msg.Body)

	auth := base64.StdEncoding.EncodeToString([]byte(svc.accountSID + ":" + svc.authToken))
	req := rest.Request{
		Method:  rest.Post,
		BaseURL: host + fmt.Sprintf(endpoint, svc.accountSID),
		Headers: map[string]string{
			"Authorization": "Basic " + auth,
			"Content-Type":  "application/x-www-form-urlencoded",
		},
		Body: []byte(form.Encode()),
	}

	res, err := rest.SendWithContext(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "calling Twilio API")
	}

	var body twilioResponse
	if err = json.Unmarshal([]byte(res.Body), &body); err != nil {
		return "", errors.Wrapf(err, "decoding Twilio response - status: %d", res.StatusCode)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", errors.Errorf("Twilio API - status: %d - %s", res.StatusCode, body.ErrorMessage)
	}
	return body.SID, nil
}
