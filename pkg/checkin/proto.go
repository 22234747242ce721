package checkin

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of android_checkin.proto / checkin.proto
const (
	fieldRequestID               = 2
	fieldRequestCheckin          = 4
	fieldRequestSecurityToken    = 13
	fieldRequestVersion          = 14
	fieldRequestUserSerialNumber = 22

	fieldCheckinType        = 12
	fieldCheckinChromeBuild = 13

	fieldChromePlatform = 1
	fieldChromeVersion  = 2
	fieldChromeChannel  = 3

	fieldResponseStatsOK       = 1
	fieldResponseAndroidID     = 7
	fieldResponseSecurityToken = 8
)

// Values a desktop Chrome build reports at check-in
const (
	PlatformLinux    = 2
	ChromeVersion    = "63.0.3234.0"
	ChannelStable    = 1
	DeviceTypeChrome = 3
	RequestVersion   = 3
)

// ChromeBuild identifies the client build
type ChromeBuild struct {
	Platform      int32
	ChromeVersion string
	Channel       int32
}

// Request is an AndroidCheckinRequest
type Request struct {
	AndroidID        *uint64
	SecurityToken    *uint64
	DeviceType       int32
	ChromeBuild      ChromeBuild
	Version          int32
	UserSerialNumber int32
}

// NewRequest builds the check-in request of a Chrome desktop client. Nil
// identity fields request a fresh device.
func NewRequest(androidID, securityToken *uint64) *Request {
	return &Request{
		AndroidID:     androidID,
		SecurityToken: securityToken,
		DeviceType:    DeviceTypeChrome,
		ChromeBuild: ChromeBuild{
			Platform:      PlatformLinux,
			ChromeVersion: ChromeVersion,
			Channel:       ChannelStable,
		},
		Version:          RequestVersion,
		UserSerialNumber: 0,
	}
}

// Marshal encodes the request in protobuf wire format
func (r *Request) Marshal() []byte {
	var build []byte
	build = protowire.AppendTag(build, fieldChromePlatform, protowire.VarintType)
	build = protowire.AppendVarint(build, uint64(r.ChromeBuild.Platform))
	build = protowire.AppendTag(build, fieldChromeVersion, protowire.BytesType)
	build = protowire.AppendString(build, r.ChromeBuild.ChromeVersion)
	build = protowire.AppendTag(build, fieldChromeChannel, protowire.VarintType)
	build = protowire.AppendVarint(build, uint64(r.ChromeBuild.Channel))

	var checkin []byte
	checkin = protowire.AppendTag(checkin, fieldCheckinType, protowire.VarintType)
	checkin = protowire.AppendVarint(checkin, uint64(r.DeviceType))
	checkin = protowire.AppendTag(checkin, fieldCheckinChromeBuild, protowire.BytesType)
	checkin = protowire.AppendBytes(checkin, build)

	var b []byte
	if r.AndroidID != nil {
		b = protowire.AppendTag(b, fieldRequestID, protowire.VarintType)
		b = protowire.AppendVarint(b, *r.AndroidID)
	}
	b = protowire.AppendTag(b, fieldRequestCheckin, protowire.BytesType)
	b = protowire.AppendBytes(b, checkin)
	if r.SecurityToken != nil {
		b = protowire.AppendTag(b, fieldRequestSecurityToken, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, *r.SecurityToken)
	}
	b = protowire.AppendTag(b, fieldRequestVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Version))
	b = protowire.AppendTag(b, fieldRequestUserSerialNumber, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.UserSerialNumber))
	return b
}

// Response is the subset of AndroidCheckinResponse the receiver uses
type Response struct {
	StatsOK       bool
	AndroidID     uint64
	SecurityToken uint64
}

// UnmarshalResponse decodes an AndroidCheckinResponse, skipping unknown fields
func UnmarshalResponse(b []byte) (*Response, error) {
	resp := &Response{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldResponseStatsOK && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			resp.StatsOK = protowire.DecodeBool(v)
			b = b[n:]
		case num == fieldResponseAndroidID && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			resp.AndroidID = v
			b = b[n:]
		case num == fieldResponseSecurityToken && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			resp.SecurityToken = v
			b = b[n:]
		case num == fieldResponseStatsOK || num == fieldResponseAndroidID || num == fieldResponseSecurityToken:
			return nil, fmt.Errorf("field %d: unexpected wire type %d", num, typ)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return resp, nil
}
