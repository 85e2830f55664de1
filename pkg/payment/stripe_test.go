package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

func signPayload(t *testing.T, secret string, payload []byte) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestParseWebhookCheckoutCompleted(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret, "")
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","amount_total":4500,"metadata":{"userId":"u1","courseId":"c1","enrollmentId":"e1"}}}}`)

	evt, err := gw.ParseWebhook(payload, signPayload(t, testWebhookSecret, payload))
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, evt.Type)
	assert.Equal(t, "cs_1", evt.Session.ID)
	require.NotNil(t, evt.Session.AmountTotal)
	assert.EqualValues(t, 4500, *evt.Session.AmountTotal)
	assert.Equal(t, "e1", evt.Session.Metadata[MetadataEnrollmentID])
}

func TestParseWebhookOtherTypeSkipsDecode(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret, "")
	payload := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)

	evt, err := gw.ParseWebhook(payload, signPayload(t, testWebhookSecret, payload))
	require.NoError(t, err)
	assert.Equal(t, "customer.created", evt.Type)
	assert.Empty(t, evt.Session.ID)
}

func TestParseWebhookMalformedSessionKeepsEventIdentity(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret, "")
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_3","amount_total":"not-a-number"}}}`)

	evt, err := gw.ParseWebhook(payload, signPayload(t, testWebhookSecret, payload))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedEvent)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, "evt_3", evt.ID)
	assert.Equal(t, EventCheckoutCompleted, evt.Type)
}

func TestParseWebhookSignatureFailures(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret, "")
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.expired","data":{"object":{}}}`)

	_, err := gw.ParseWebhook(payload, "")
	assert.ErrorIs(t, err, ErrMissingSignature)

	_, err = gw.ParseWebhook(payload, signPayload(t, "whsec_other", payload))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestProviderErrorUsesStripeMessage(t *testing.T) {
	err := providerError(&stripe.Error{Msg: "No such price: 'price_x'"})

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "No such price: 'price_x'", perr.Message)
}
