package mcs

import (
	"go.uber.org/zap"
)

// AppDataEntry returns the first app data entry with the given key. Extra
// entries for the same key are logged and ignored.
func (m *DataMessageStanza) AppDataEntry(key string) (*AppData, error) {
	var found *AppData
	for i := range m.AppData {
		if m.AppData[i].Key != key {
			continue
		}
		if found != nil {
			zap.L().Named("mcs").Warn("multiple app data entries found",
				zap.String("key", key),
				zap.String("persistent_id", m.PersistentID))
			break
		}
		found = &m.AppData[i]
	}

	if found == nil {
		return nil, &MissingDataError{Key: key}
	}
	return found, nil
}

// AppDataValue returns the value of the first app data entry with key
func (m *DataMessageStanza) AppDataValue(key string) (string, error) {
	entry, err := m.AppDataEntry(key)
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}
