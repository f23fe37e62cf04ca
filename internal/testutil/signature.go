// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/binary"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const moduleSignatureMagic = "~Module signature appended~\n"

var (
	OIDSHA1   = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	OIDSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	OIDSHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}

	oidData          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidSignedData    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
)

// AppendSignature appends blob to obj the way scripts/sign-file does for PKCS#7 signatures.
func AppendSignature(obj []byte, blob []byte) []byte {
	out := make([]byte, 0, len(obj)+len(blob)+12+len(moduleSignatureMagic))
	out = append(out, obj...)
	out = append(out, blob...)

	header := make([]byte, 12)
	header[2] = 2 // PKEY_ID_PKCS7
	binary.BigEndian.PutUint32(header[8:], uint32(len(blob)))
	out = append(out, header...)

	return append(out, moduleSignatureMagic...)
}

// SignedData describes a detached CMS SignedData blob with a single signer.
type SignedData struct {
	Digests []asn1.ObjectIdentifier
	// Issuer is the signer certificate's issuer common name. Ignored when SubjectKeyID is set.
	Issuer       string
	Serial       int64
	SubjectKeyID []byte
}

// Bytes encodes s as a DER ContentInfo.
func (s SignedData) Bytes() []byte {
	issuer, err := asn1.Marshal(pkix.Name{CommonName: s.Issuer}.ToRDNSequence())
	if err != nil {
		panic(err)
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(ci *cryptobyte.Builder) {
		ci.AddASN1ObjectIdentifier(oidSignedData)
		ci.AddASN1(cbasn1.Tag(0).Constructed().ContextSpecific(), func(content *cryptobyte.Builder) {
			content.AddASN1(cbasn1.SEQUENCE, func(sd *cryptobyte.Builder) {
				sd.AddASN1Int64(1)
				sd.AddASN1(cbasn1.SET, func(set *cryptobyte.Builder) {
					for _, oid := range s.Digests {
						addAlgorithm(set, oid)
					}
				})
				sd.AddASN1(cbasn1.SEQUENCE, func(encap *cryptobyte.Builder) {
					encap.AddASN1ObjectIdentifier(oidData)
				})
				sd.AddASN1(cbasn1.SET, func(infos *cryptobyte.Builder) {
					infos.AddASN1(cbasn1.SEQUENCE, func(si *cryptobyte.Builder) {
						if len(s.SubjectKeyID) > 0 {
							si.AddASN1Int64(3)
							si.AddASN1(cbasn1.Tag(0).ContextSpecific(), func(ski *cryptobyte.Builder) {
								ski.AddBytes(s.SubjectKeyID)
							})
						} else {
							si.AddASN1Int64(1)
							si.AddASN1(cbasn1.SEQUENCE, func(ias *cryptobyte.Builder) {
								ias.AddBytes(issuer)
								ias.AddASN1Int64(s.Serial)
							})
						}
						if len(s.Digests) > 0 {
							addAlgorithm(si, s.Digests[0])
						}
						addAlgorithm(si, oidRSAEncryption)
						si.AddASN1OctetString([]byte{0xde, 0xad, 0xbe, 0xef})
					})
				})
			})
		})
	})

	return b.BytesOrPanic()
}

func addAlgorithm(b *cryptobyte.Builder, oid asn1.ObjectIdentifier) {
	b.AddASN1(cbasn1.SEQUENCE, func(alg *cryptobyte.Builder) {
		alg.AddASN1ObjectIdentifier(oid)
		alg.AddASN1NULL()
	})
}
