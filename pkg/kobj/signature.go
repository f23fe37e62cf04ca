// SPDX-License-Identifier: Apache-2.0

package kobj

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/automa-saga/logx"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// SignatureMagic terminates every signed kernel module.
const SignatureMagic = "~Module signature appended~\n"

// signatureHeaderSize is the size of struct module_signature.
const signatureHeaderSize = 12

// IDType is the key identifier type recorded in the signature header.
type IDType uint8

const (
	IDTypePGP IDType = iota
	IDTypeX509
	IDTypePKCS7
)

func (t IDType) String() string {
	switch t {
	case IDTypePGP:
		return "pgp"
	case IDTypeX509:
		return "x509"
	case IDTypePKCS7:
		return "pkcs7"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func (t IDType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Signature describes the signature appended to a module.
type Signature struct {
	// Offset is where the appended signer name, key id and signature data begin.
	Offset        int64  `yaml:"offset" json:"offset"`
	Length        int64  `yaml:"length" json:"length"`
	Algorithm     uint8  `yaml:"algorithm" json:"algorithm"`
	HashAlgorithm uint8  `yaml:"hashAlgorithm" json:"hashAlgorithm"`
	IDType        IDType `yaml:"idType" json:"idType"`
	// Signer is the signer name for legacy signatures or the certificate issuer for PKCS#7.
	Signer           string   `yaml:"signer,omitempty" json:"signer,omitempty"`
	KeyID            string   `yaml:"keyId,omitempty" json:"keyId,omitempty"`
	SerialNumber     string   `yaml:"serialNumber,omitempty" json:"serialNumber,omitempty"`
	DigestAlgorithms []string `yaml:"digestAlgorithms,omitempty" json:"digestAlgorithms,omitempty"`
}

// DetectSignature looks for a module signature trailer at the end of img.
// It returns nil without error when img is unsigned.
func DetectSignature(img []byte) (*Signature, error) {
	if !bytes.HasSuffix(img, []byte(SignatureMagic)) {
		return nil, nil
	}

	headerEnd := int64(len(img) - len(SignatureMagic))
	if headerEnd < signatureHeaderSize {
		return nil, NewInvalidObjectFormatError(nil, "truncated signature header")
	}

	headerStart := headerEnd - signatureHeaderSize
	hdr := img[headerStart:headerEnd]

	signerLen := int64(hdr[3])
	keyIDLen := int64(hdr[4])
	sigLen := int64(binary.BigEndian.Uint32(hdr[8:12]))

	appended := signerLen + keyIDLen + sigLen
	if appended > headerStart {
		return nil, NewInvalidObjectFormatError(nil, "signature length exceeds file size")
	}

	sig := &Signature{
		Offset:        headerStart - appended,
		Length:        sigLen,
		Algorithm:     hdr[0],
		HashAlgorithm: hdr[1],
		IDType:        IDType(hdr[2]),
	}

	signer := img[sig.Offset : sig.Offset+signerLen]
	keyID := img[sig.Offset+signerLen : sig.Offset+signerLen+keyIDLen]
	blob := img[headerStart-sigLen : headerStart]

	if sig.IDType != IDTypePKCS7 {
		sig.Signer = string(signer)
		sig.KeyID = hex.EncodeToString(keyID)
		return sig, nil
	}

	if err := inspectSignedData(blob, sig); err != nil {
		// still signed, only the details are unavailable
		logx.As().Debug().Err(err).Int64("offset", sig.Offset).Msg("Module signature is not CMS SignedData")
	}

	return sig, nil
}

var (
	oidSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}

	digestNames = map[string]string{
		"1.3.14.3.2.26":           "sha1",
		"2.16.840.1.101.3.4.2.4":  "sha224",
		"2.16.840.1.101.3.4.2.1":  "sha256",
		"2.16.840.1.101.3.4.2.2":  "sha384",
		"2.16.840.1.101.3.4.2.3":  "sha512",
		"2.16.840.1.101.3.4.2.8":  "sha3-256",
		"2.16.840.1.101.3.4.2.9":  "sha3-384",
		"2.16.840.1.101.3.4.2.10": "sha3-512",
		"1.2.156.10197.1.401":     "sm3",
	}

	errMalformedSignedData = errors.New("malformed CMS SignedData")
)

func digestName(oid asn1.ObjectIdentifier) string {
	if name, ok := digestNames[oid.String()]; ok {
		return name
	}
	return oid.String()
}

// inspectSignedData reads the digest algorithms and the first signer identifier of a DER
// ContentInfo wrapping SignedData (RFC 5652). sig is only updated when the whole walk succeeds.
func inspectSignedData(blob []byte, sig *Signature) error {
	input := cryptobyte.String(blob)

	var contentInfo, content, signedData cryptobyte.String
	var contentType asn1.ObjectIdentifier
	if !input.ReadASN1(&contentInfo, cbasn1.SEQUENCE) ||
		!contentInfo.ReadASN1ObjectIdentifier(&contentType) {
		return errMalformedSignedData
	}
	if !contentType.Equal(oidSignedData) {
		return fmt.Errorf("unexpected content type %s", contentType)
	}
	if !contentInfo.ReadASN1(&content, cbasn1.Tag(0).Constructed().ContextSpecific()) ||
		!content.ReadASN1(&signedData, cbasn1.SEQUENCE) {
		return errMalformedSignedData
	}

	var version int64
	var digestSet cryptobyte.String
	if !signedData.ReadASN1Integer(&version) || !signedData.ReadASN1(&digestSet, cbasn1.SET) {
		return errMalformedSignedData
	}

	var digests []string
	for !digestSet.Empty() {
		var alg cryptobyte.String
		var oid asn1.ObjectIdentifier
		if !digestSet.ReadASN1(&alg, cbasn1.SEQUENCE) || !alg.ReadASN1ObjectIdentifier(&oid) {
			return errMalformedSignedData
		}
		digests = append(digests, digestName(oid))
	}

	// encapContentInfo, then the optional certificates [0] and crls [1]
	if !signedData.SkipASN1(cbasn1.SEQUENCE) ||
		!signedData.SkipOptionalASN1(cbasn1.Tag(0).Constructed().ContextSpecific()) ||
		!signedData.SkipOptionalASN1(cbasn1.Tag(1).Constructed().ContextSpecific()) {
		return errMalformedSignedData
	}

	var signerInfos cryptobyte.String
	if !signedData.ReadASN1(&signerInfos, cbasn1.SET) {
		return errMalformedSignedData
	}

	var signer, serial, keyID string
	if !signerInfos.Empty() {
		var info cryptobyte.String
		var infoVersion int64
		if !signerInfos.ReadASN1(&info, cbasn1.SEQUENCE) || !info.ReadASN1Integer(&infoVersion) {
			return errMalformedSignedData
		}

		switch {
		case info.PeekASN1Tag(cbasn1.SEQUENCE):
			var err error
			if signer, serial, err = readIssuerAndSerial(&info); err != nil {
				return err
			}
		case info.PeekASN1Tag(cbasn1.Tag(0).ContextSpecific()):
			var ski cryptobyte.String
			if !info.ReadASN1(&ski, cbasn1.Tag(0).ContextSpecific()) {
				return errMalformedSignedData
			}
			keyID = hex.EncodeToString(ski)
		default:
			return errMalformedSignedData
		}
	}

	sig.DigestAlgorithms = digests
	sig.Signer = signer
	sig.SerialNumber = serial
	sig.KeyID = keyID

	return nil
}

func readIssuerAndSerial(info *cryptobyte.String) (string, string, error) {
	var ias, issuer cryptobyte.String
	if !info.ReadASN1(&ias, cbasn1.SEQUENCE) || !ias.ReadASN1Element(&issuer, cbasn1.SEQUENCE) {
		return "", "", errMalformedSignedData
	}

	var serial cryptobyte.String
	if !ias.ReadASN1(&serial, cbasn1.INTEGER) || len(serial) == 0 {
		return "", "", errMalformedSignedData
	}

	var rdn pkix.RDNSequence
	rest, err := asn1.Unmarshal(issuer, &rdn)
	if err != nil {
		return "", "", err
	}
	if len(rest) > 0 {
		return "", "", errMalformedSignedData
	}

	var name pkix.Name
	name.FillFromRDNSequence(&rdn)

	return name.String(), hex.EncodeToString(serial), nil
}
