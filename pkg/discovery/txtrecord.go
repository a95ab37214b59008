package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeBridgeTXT creates TXT records for a bridge.
func EncodeBridgeTXT(info *BridgeInfo) TXTRecordMap {
	txt := TXTRecordMap{TXTKeyProtocol: Protocol}

	if info.Baud > 0 {
		txt[TXTKeyBaud] = strconv.Itoa(info.Baud)
	}
	if info.Model != "" {
		txt[TXTKeyModel] = info.Model
	}
	if info.Firmware != "" {
		txt[TXTKeyFirmware] = info.Firmware
	}
	return txt
}

// DecodeBridgeTXT parses bridge TXT records into b. A missing or
// unparsable baud is left at zero.
func DecodeBridgeTXT(txt TXTRecordMap, b *Bridge) error {
	proto, ok := txt[TXTKeyProtocol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyProtocol)
	}
	if !strings.EqualFold(proto, Protocol) {
		return fmt.Errorf("%w: %q", ErrWrongProtocol, proto)
	}

	if s, ok := txt[TXTKeyBaud]; ok {
		if baud, err := strconv.Atoi(s); err == nil && baud > 0 {
			b.Baud = baud
		}
	}
	b.Model = txt[TXTKeyModel]
	b.Firmware = txt[TXTKeyFirmware]
	return nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if found {
			txt[k] = v
		} else if k != "" {
			// Key without value (boolean flag)
			txt[k] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
