package mcs

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// encoder appends protobuf fields. Optional scalars are skipped when zero;
// the required* variants always write the field.
type encoder []byte

func (e *encoder) requiredString(num protowire.Number, v string) {
	*e = protowire.AppendTag(*e, num, protowire.BytesType)
	*e = protowire.AppendString(*e, v)
}

func (e *encoder) string(num protowire.Number, v string) {
	if v != "" {
		e.requiredString(num, v)
	}
}

func (e *encoder) bytes(num protowire.Number, v []byte) {
	if v != nil {
		*e = protowire.AppendTag(*e, num, protowire.BytesType)
		*e = protowire.AppendBytes(*e, v)
	}
}

func (e *encoder) requiredInt64(num protowire.Number, v int64) {
	*e = protowire.AppendTag(*e, num, protowire.VarintType)
	*e = protowire.AppendVarint(*e, uint64(v))
}

func (e *encoder) int64(num protowire.Number, v int64) {
	if v != 0 {
		e.requiredInt64(num, v)
	}
}

func (e *encoder) int32(num protowire.Number, v int32) {
	e.int64(num, int64(v))
}

func (e *encoder) requiredBool(num protowire.Number, v bool) {
	*e = protowire.AppendTag(*e, num, protowire.VarintType)
	*e = protowire.AppendVarint(*e, protowire.EncodeBool(v))
}

func (e *encoder) bool(num protowire.Number, v bool) {
	if v {
		e.requiredBool(num, v)
	}
}

func (e *encoder) message(num protowire.Number, body []byte) {
	*e = protowire.AppendTag(*e, num, protowire.BytesType)
	*e = protowire.AppendBytes(*e, body)
}

// field is one raw field handed to an unmarshal callback. Accessors record
// the first failure in err instead of returning it.
type field struct {
	num protowire.Number
	typ protowire.Type
	raw []byte
	err *error
}

func (f *field) fail(err error) {
	if *f.err == nil {
		*f.err = fmt.Errorf("field %d: %w", f.num, err)
	}
}

func (f *field) expect(typ protowire.Type) bool {
	if f.typ != typ {
		f.fail(ErrWireType)
		return false
	}
	return true
}

func (f *field) uint64() uint64 {
	if !f.expect(protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(f.raw)
	if n < 0 {
		f.fail(protowire.ParseError(n))
		return 0
	}
	return v
}

func (f *field) int64() int64 { return int64(f.uint64()) }
func (f *field) int32() int32 { return int32(f.uint64()) }
func (f *field) bool() bool   { return protowire.DecodeBool(f.uint64()) }

func (f *field) bytes() []byte {
	if !f.expect(protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(f.raw)
	if n < 0 {
		f.fail(protowire.ParseError(n))
		return nil
	}
	return append([]byte{}, v...)
}

func (f *field) string() string {
	return string(f.bytes())
}

// embedded decodes a nested message field into dst
func (f *field) embedded(dst interface{ unmarshal([]byte) error }) {
	b := f.bytes()
	if *f.err != nil {
		return
	}
	if err := dst.unmarshal(b); err != nil {
		f.fail(err)
	}
}

// walkFields calls fn for each field in b. Unknown fields are left to fn
// to ignore.
func walkFields(b []byte, fn func(f *field)) error {
	var err error
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return protowire.ParseError(m)
		}
		fn(&field{num: num, typ: typ, raw: b[:m], err: &err})
		if err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func (m *HeartbeatPing) marshal() []byte {
	var e encoder
	e.int32(1, m.StreamID)
	e.int32(2, m.LastStreamIDReceived)
	e.int64(3, m.Status)
	return e
}

func (m *HeartbeatPing) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.StreamID = f.int32()
		case 2:
			m.LastStreamIDReceived = f.int32()
		case 3:
			m.Status = f.int64()
		}
	})
}

func (m *HeartbeatAck) marshal() []byte {
	var e encoder
	e.int32(1, m.StreamID)
	e.int32(2, m.LastStreamIDReceived)
	e.int64(3, m.Status)
	return e
}

func (m *HeartbeatAck) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.StreamID = f.int32()
		case 2:
			m.LastStreamIDReceived = f.int32()
		case 3:
			m.Status = f.int64()
		}
	})
}

func (s *Setting) marshal() []byte {
	var e encoder
	e.requiredString(1, s.Name)
	e.requiredString(2, s.Value)
	return e
}

func (s *Setting) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			s.Name = f.string()
		case 2:
			s.Value = f.string()
		}
	})
}

func (h *HeartbeatStat) marshal() []byte {
	var e encoder
	e.requiredString(1, h.IP)
	e.requiredBool(2, h.Timeout)
	e.requiredInt64(3, int64(h.IntervalMS))
	return e
}

func (h *HeartbeatStat) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			h.IP = f.string()
		case 2:
			h.Timeout = f.bool()
		case 3:
			h.IntervalMS = f.int32()
		}
	})
}

func (h *HeartbeatConfig) marshal() []byte {
	var e encoder
	e.bool(1, h.UploadStat)
	e.string(2, h.IP)
	e.int32(3, h.IntervalMS)
	return e
}

func (h *HeartbeatConfig) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			h.UploadStat = f.bool()
		case 2:
			h.IP = f.string()
		case 3:
			h.IntervalMS = f.int32()
		}
	})
}

func (x *Extension) marshal() []byte {
	var e encoder
	e.requiredInt64(1, int64(x.ID))
	e.message(2, x.Data)
	return e
}

func (x *Extension) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			x.ID = f.int32()
		case 2:
			x.Data = f.bytes()
		}
	})
}

func (ei *ErrorInfo) marshal() []byte {
	var e encoder
	e.requiredInt64(1, int64(ei.Code))
	e.string(2, ei.Message)
	e.string(3, ei.Type)
	if ei.Extension != nil {
		e.message(4, ei.Extension.marshal())
	}
	return e
}

func (ei *ErrorInfo) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			ei.Code = f.int32()
		case 2:
			ei.Message = f.string()
		case 3:
			ei.Type = f.string()
		case 4:
			ei.Extension = &Extension{}
			f.embedded(ei.Extension)
		}
	})
}

func (m *LoginRequest) marshal() []byte {
	var e encoder
	e.requiredString(1, m.ID)
	e.requiredString(2, m.Domain)
	e.requiredString(3, m.User)
	e.requiredString(4, m.Resource)
	e.requiredString(5, m.AuthToken)
	e.string(6, m.DeviceID)
	e.int64(7, m.LastRMQID)
	for i := range m.Settings {
		e.message(8, m.Settings[i].marshal())
	}
	for _, id := range m.ReceivedPersistentIDs {
		e.requiredString(10, id)
	}
	e.requiredBool(12, m.AdaptiveHeartbeat)
	if m.HeartbeatStat != nil {
		e.message(13, m.HeartbeatStat.marshal())
	}
	e.requiredBool(14, m.UseRMQ2)
	e.int64(15, m.AccountID)
	e.int32(16, m.AuthService)
	e.int32(17, m.NetworkType)
	e.int64(18, m.Status)
	return e
}

func (m *LoginRequest) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.ID = f.string()
		case 2:
			m.Domain = f.string()
		case 3:
			m.User = f.string()
		case 4:
			m.Resource = f.string()
		case 5:
			m.AuthToken = f.string()
		case 6:
			m.DeviceID = f.string()
		case 7:
			m.LastRMQID = f.int64()
		case 8:
			var s Setting
			f.embedded(&s)
			m.Settings = append(m.Settings, s)
		case 10:
			m.ReceivedPersistentIDs = append(m.ReceivedPersistentIDs, f.string())
		case 12:
			m.AdaptiveHeartbeat = f.bool()
		case 13:
			m.HeartbeatStat = &HeartbeatStat{}
			f.embedded(m.HeartbeatStat)
		case 14:
			m.UseRMQ2 = f.bool()
		case 15:
			m.AccountID = f.int64()
		case 16:
			m.AuthService = f.int32()
		case 17:
			m.NetworkType = f.int32()
		case 18:
			m.Status = f.int64()
		}
	})
}

func (m *LoginResponse) marshal() []byte {
	var e encoder
	e.requiredString(1, m.ID)
	e.string(2, m.JID)
	if m.Error != nil {
		e.message(3, m.Error.marshal())
	}
	for i := range m.Settings {
		e.message(4, m.Settings[i].marshal())
	}
	e.int32(5, m.StreamID)
	e.int32(6, m.LastStreamIDReceived)
	if m.HeartbeatConfig != nil {
		e.message(7, m.HeartbeatConfig.marshal())
	}
	e.int64(8, m.ServerTimestamp)
	return e
}

func (m *LoginResponse) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.ID = f.string()
		case 2:
			m.JID = f.string()
		case 3:
			m.Error = &ErrorInfo{}
			f.embedded(m.Error)
		case 4:
			var s Setting
			f.embedded(&s)
			m.Settings = append(m.Settings, s)
		case 5:
			m.StreamID = f.int32()
		case 6:
			m.LastStreamIDReceived = f.int32()
		case 7:
			m.HeartbeatConfig = &HeartbeatConfig{}
			f.embedded(m.HeartbeatConfig)
		case 8:
			m.ServerTimestamp = f.int64()
		}
	})
}

func (*Close) marshal() []byte { return nil }

func (*Close) unmarshal(b []byte) error {
	return walkFields(b, func(*field) {})
}

func (m *IqStanza) marshal() []byte {
	var e encoder
	e.int64(1, m.RMQID)
	e.requiredInt64(2, int64(m.Type))
	e.requiredString(3, m.ID)
	e.string(4, m.From)
	e.string(5, m.To)
	if m.Error != nil {
		e.message(6, m.Error.marshal())
	}
	if m.Extension != nil {
		e.message(7, m.Extension.marshal())
	}
	e.string(8, m.PersistentID)
	e.int32(9, m.StreamID)
	e.int32(10, m.LastStreamIDReceived)
	e.int64(11, m.AccountID)
	e.int64(12, m.Status)
	return e
}

func (m *IqStanza) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.RMQID = f.int64()
		case 2:
			m.Type = IqType(f.int32())
		case 3:
			m.ID = f.string()
		case 4:
			m.From = f.string()
		case 5:
			m.To = f.string()
		case 6:
			m.Error = &ErrorInfo{}
			f.embedded(m.Error)
		case 7:
			m.Extension = &Extension{}
			f.embedded(m.Extension)
		case 8:
			m.PersistentID = f.string()
		case 9:
			m.StreamID = f.int32()
		case 10:
			m.LastStreamIDReceived = f.int32()
		case 11:
			m.AccountID = f.int64()
		case 12:
			m.Status = f.int64()
		}
	})
}

func (a *AppData) marshal() []byte {
	var e encoder
	e.requiredString(1, a.Key)
	e.requiredString(2, a.Value)
	return e
}

func (a *AppData) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			a.Key = f.string()
		case 2:
			a.Value = f.string()
		}
	})
}

func (m *DataMessageStanza) marshal() []byte {
	var e encoder
	e.int64(1, m.RMQID)
	e.string(2, m.ID)
	e.requiredString(3, m.From)
	e.string(4, m.To)
	e.requiredString(5, m.Category)
	e.string(6, m.Token)
	for i := range m.AppData {
		e.message(7, m.AppData[i].marshal())
	}
	e.bool(8, m.FromTrustedServer)
	e.string(9, m.PersistentID)
	e.int32(10, m.StreamID)
	e.int32(11, m.LastStreamIDReceived)
	e.string(12, m.Permission)
	e.string(13, m.RegID)
	e.string(14, m.PkgSignature)
	e.string(15, m.ClientID)
	e.int64(16, m.DeviceUserID)
	e.int32(17, m.TTL)
	e.int64(18, m.Sent)
	e.int32(19, m.Queued)
	e.int64(20, m.Status)
	e.bytes(21, m.RawData)
	e.int32(22, m.Delay)
	e.bool(23, m.ImmediateAck)
	return e
}

func (m *DataMessageStanza) unmarshal(b []byte) error {
	return walkFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.RMQID = f.int64()
		case 2:
			m.ID = f.string()
		case 3:
			m.From = f.string()
		case 4:
			m.To = f.string()
		case 5:
			m.Category = f.string()
		case 6:
			m.Token = f.string()
		case 7:
			var a AppData
			f.embedded(&a)
			m.AppData = append(m.AppData, a)
		case 8:
			m.FromTrustedServer = f.bool()
		case 9:
			m.PersistentID = f.string()
		case 10:
			m.StreamID = f.int32()
		case 11:
			m.LastStreamIDReceived = f.int32()
		case 12:
			m.Permission = f.string()
		case 13:
			m.RegID = f.string()
		case 14:
			m.PkgSignature = f.string()
		case 15:
			m.ClientID = f.string()
		case 16:
			m.DeviceUserID = f.int64()
		case 17:
			m.TTL = f.int32()
		case 18:
			m.Sent = f.int64()
		case 19:
			m.Queued = f.int32()
		case 20:
			m.Status = f.int64()
		case 21:
			m.RawData = f.bytes()
		case 22:
			m.Delay = f.int32()
		case 23:
			m.ImmediateAck = f.bool()
		}
	})
}
