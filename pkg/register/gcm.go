package register

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/credentials"
)

var (
	ErrEmptyToken = errors.New("response carries no token")
)

// GCMError is an Error=<reason> body returned by register3
type GCMError struct {
	Reason string
}

func (e *GCMError) Error() string {
	return "gcm error: " + e.Reason
}

// registerGCM checks in a new device and registers appID for it
func (r *Registrar) registerGCM(ctx context.Context, appID, serverKey string) (*credentials.GCMCredentials, error) {
	device, err := r.checkin.CheckIn(ctx, nil, nil)
	if err != nil {
		return nil, &Error{Step: StepCheckIn, Err: err}
	}

	androidID := strconv.FormatUint(device.AndroidID, 10)
	securityToken := strconv.FormatUint(device.SecurityToken, 10)

	form := url.Values{}
	form.Set("app", r.config.AppName)
	form.Set("X-subtype", appID)
	form.Set("device", androidID)
	form.Set("sender", serverKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.RegisterURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Step: StepGCM, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", fmt.Sprintf("AidLogin %s:%s", androidID, securityToken))

	r.logger.Debug("gcm register", zap.String("app_id", appID), zap.String("device", androidID))

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, &Error{Step: StepGCM, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Step: StepGCM, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Step: StepGCM, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	token, err := parseRegisterResponse(string(body))
	if err != nil {
		return nil, &Error{Step: StepGCM, Err: err}
	}

	return &credentials.GCMCredentials{
		Token:         token,
		AndroidID:     androidID,
		SecurityToken: securityToken,
		AppID:         appID,
	}, nil
}

// parseRegisterResponse extracts the token from a "token=<value>" body
func parseRegisterResponse(body string) (string, error) {
	key, value, ok := strings.Cut(strings.TrimSpace(body), "=")
	if !ok {
		return "", fmt.Errorf("unexpected register response %q", body)
	}
	switch key {
	case "token":
		if value == "" {
			return "", ErrEmptyToken
		}
		return value, nil
	case "Error":
		return "", &GCMError{Reason: value}
	default:
		return "", fmt.Errorf("unexpected register response %q", body)
	}
}
