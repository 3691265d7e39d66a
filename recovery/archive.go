package recovery

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

const (
	metadataFileName   = "metadata.json"
	passphraseFileName = "RSA_PASSPHRASE"
	mobileFilePrefix   = "MOBILE"
)

// MobileShare is the owner share of one key, encrypted with the mobile
// passphrase.
type MobileShare struct {
	FileName            string
	KeyID               string
	DeviceID            string
	UserID              string
	EncryptionAlgorithm string
	EncryptedKey        []byte
}

type rawMobileShare struct {
	EncryptedKey        string `json:"encryptedKey"`
	KeyID               string `json:"keyId"`
	DeviceID            string `json:"deviceId"`
	UserID              string `json:"userId"`
	EncryptionAlgorithm string `json:"encryptionAlgorithm"`
}

// CosignerShare is a cosigner held share encrypted to the recovery RSA key.
type CosignerShare struct {
	FileName   string
	CosignerID string
	KeyID      string
	Data       []byte
}

// Archive is the parsed content of a recovery kit.
type Archive struct {
	Metadata *Metadata

	// EncryptedPassphrase is the RSA_PASSPHRASE entry, nil when absent.
	EncryptedPassphrase []byte

	MobileShares   []MobileShare
	CosignerShares []CosignerShare

	// MasterKeyShares are cosigner shares of NCW master keys, keyed by file name.
	MasterKeyShares map[string][]CosignerShare
}

// ReadArchive parses the raw bytes of a recovery kit zip.
func ReadArchive(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecoveryKit, err)
	}

	a := &Archive{MasterKeyShares: make(map[string][]CosignerShare)}

	var metadataFile *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case metadataFileName:
			if metadataFile == nil {
				metadataFile = f
			}
		case passphraseFileName:
			if a.EncryptedPassphrase, err = readZipFile(f); err != nil {
				return nil, err
			}
		}
	}
	if metadataFile == nil {
		return nil, ErrNoMetadata
	}
	raw, err := readZipFile(metadataFile)
	if err != nil {
		return nil, err
	}
	if a.Metadata, err = ParseMetadata(raw); err != nil {
		return nil, err
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || f.Name == metadataFileName || f.Name == passphraseFileName {
			continue
		}
		content, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(f.Name, mobileFilePrefix) {
			share, err := parseMobileShare(f.Name, content)
			if err != nil {
				return nil, err
			}
			if _, ok := a.Metadata.Keys[share.KeyID]; !ok {
				return nil, fmt.Errorf("%w: %s in %s", ErrKeyIDNotInMetadata, share.KeyID, f.Name)
			}
			a.MobileShares = append(a.MobileShares, share)
			continue
		}
		if err := a.addCosignerShare(f.Name, content); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *Archive) addCosignerShare(name string, content []byte) error {
	cosignerID, keyID, found := strings.Cut(name, "_")
	if !found {
		// legacy kits hold a single key and name share files by cosigner only
		onlyKey, ok := a.Metadata.onlyKeyID()
		if !ok {
			return nil
		}
		cosignerID, keyID = name, onlyKey
	}

	share := CosignerShare{
		FileName:   name,
		CosignerID: cosignerID,
		KeyID:      keyID,
		Data:       content,
	}
	if _, ok := a.Metadata.Keys[keyID]; ok {
		a.CosignerShares = append(a.CosignerShares, share)
		return nil
	}
	if _, ok := a.Metadata.MasterKeys[keyID]; ok {
		a.MasterKeyShares[name] = append(a.MasterKeyShares[name], share)
		return nil
	}
	return fmt.Errorf("%w: %s in %s", ErrKeyIDNotInMetadata, keyID, name)
}

func parseMobileShare(name string, content []byte) (MobileShare, error) {
	var raw rawMobileShare
	if err := json.Unmarshal(content, &raw); err != nil {
		return MobileShare{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecoveryKit, name, err)
	}
	encrypted, err := hex.DecodeString(raw.EncryptedKey)
	if err != nil {
		return MobileShare{}, fmt.Errorf("%w: %s encrypted key: %v", ErrInvalidRecoveryKit, name, err)
	}
	return MobileShare{
		FileName:            name,
		KeyID:               raw.KeyID,
		DeviceID:            raw.DeviceID,
		UserID:              raw.UserID,
		EncryptionAlgorithm: raw.EncryptionAlgorithm,
		EncryptedKey:        encrypted,
	}, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidRecoveryKit, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidRecoveryKit, f.Name, err)
	}
	return data, nil
}
