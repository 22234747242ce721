package register

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/credentials"
)

// subscribeFCM binds the GCM token and the receiver's public key to senderID
func (r *Registrar) subscribeFCM(ctx context.Context, senderID, gcmToken string, keys credentials.Keys) (*credentials.FCMCredentials, error) {
	form := url.Values{}
	form.Set("authorized_entity", senderID)
	form.Set("endpoint", r.config.SendURL+"/"+gcmToken)
	form.Set("encryption_key", keys.PublicKey)
	form.Set("encryption_auth", keys.AuthSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.SubscribeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Step: StepFCM, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	r.logger.Debug("fcm subscribe", zap.String("authorized_entity", senderID))

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, &Error{Step: StepFCM, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Step: StepFCM, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Step: StepFCM, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	var fcm credentials.FCMCredentials
	if err := json.Unmarshal(body, &fcm); err != nil {
		return nil, &Error{Step: StepFCM, Err: err}
	}
	if fcm.Token == "" {
		return nil, &Error{Step: StepFCM, Err: ErrEmptyToken}
	}
	return &fcm, nil
}
