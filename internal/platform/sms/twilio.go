package sms

import (
	"context"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

func (s *TwilioSender) Send(_ context.Context, phone, text string) Result {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(phone)
	params.SetBody(text)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return Result{Sent: false, Provider: "twilio", Detail: err.Error()}
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	return Result{Sent: true, Provider: "twilio", Detail: sid}
}
