package recovery

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// CloudPlayerID is the player id of a cloud cosigner share:
// cosignerID << 32 | the first four bytes of the key id read little-endian.
func CloudPlayerID(keyID, cosignerID string) (uint64, error) {
	keyUUID, err := uuid.Parse(keyID)
	if err != nil {
		return 0, fmt.Errorf("%w: key id %q: %v", ErrInvalidRecoveryKit, keyID, err)
	}
	cosigner, err := strconv.ParseUint(cosignerID, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: cosigner id %q: %v", ErrInvalidRecoveryKit, cosignerID, err)
	}
	return cosigner<<32 | uint64(binary.LittleEndian.Uint32(keyUUID[:4])), nil
}

// DevicePlayerID is the player id of a device held share: the first six
// bytes of the device id read big-endian.
func DevicePlayerID(deviceID string) (uint64, error) {
	deviceUUID, err := uuid.Parse(deviceID)
	if err != nil {
		return 0, fmt.Errorf("%w: device id %q: %v", ErrInvalidRecoveryKit, deviceID, err)
	}
	var buf [8]byte
	copy(buf[2:], deviceUUID[:6])
	return binary.BigEndian.Uint64(buf[:]), nil
}

// MasterKeyPlayerID is the player id naming a cloud cosigner's wallet
// master key share file.
func MasterKeyPlayerID(cosignerID string) (uint32, error) {
	cosignerUUID, err := uuid.Parse(cosignerID)
	if err != nil {
		return 0, fmt.Errorf("%w: cosigner id %q: %v", ErrInvalidRecoveryKit, cosignerID, err)
	}
	return binary.LittleEndian.Uint32(cosignerUUID[:4]), nil
}
