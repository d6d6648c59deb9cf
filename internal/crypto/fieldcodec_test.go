package crypto_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tenantgate.app/api-server/internal/crypto"
)

var _ = Describe("FieldCodec", func() {
	var codec *crypto.FieldCodec

	BeforeEach(func() {
		var err error
		codec, err = crypto.NewGenerated()
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("EncodeFields", func() {
		It("encrypts only the sensitive fields", func() {
			fields := map[string]string{
				"api_key":  "pk-12345",
				"endpoint": "https://api.example.com",
			}

			encoded, err := codec.EncodeFields(fields)
			Expect(err).ToNot(HaveOccurred())

			Expect(encoded["endpoint"]).To(Equal("https://api.example.com"))
			Expect(encoded["api_key"]).ToNot(Equal("pk-12345"))
		})

		It("does not modify the input map", func() {
			fields := map[string]string{"password": "hunter2"}

			_, err := codec.EncodeFields(fields)
			Expect(err).ToNot(HaveOccurred())

			Expect(fields["password"]).To(Equal("hunter2"))
		})
	})

	Describe("DecodeFields", func() {
		It("round-trips sensitive values", func() {
			fields := map[string]string{
				"access_token":  "tok-a",
				"refresh_token": "tok-r",
				"client_id":     "client-1",
			}

			encoded, err := codec.EncodeFields(fields)
			Expect(err).ToNot(HaveOccurred())

			decoded := codec.DecodeFields(encoded)
			Expect(decoded).To(Equal(fields))
		})

		Context("when a value does not verify", func() {
			It("keeps the stored value instead of failing", func() {
				other, err := crypto.NewGenerated()
				Expect(err).ToNot(HaveOccurred())

				encoded, err := other.EncodeFields(map[string]string{"secret_key": "s3cret"})
				Expect(err).ToNot(HaveOccurred())

				decoded := codec.DecodeFields(encoded)
				Expect(decoded["secret_key"]).To(Equal(encoded["secret_key"]))
			})

			It("keeps plaintext written before encryption was enabled", func() {
				decoded := codec.DecodeFields(map[string]string{"token_secret": "legacy-plain"})
				Expect(decoded["token_secret"]).To(Equal("legacy-plain"))
			})
		})
	})

	Describe("IsSensitive", func() {
		It("matches the credential field names", func() {
			Expect(crypto.IsSensitive("api_key")).To(BeTrue())
			Expect(crypto.IsSensitive("client_secret")).To(BeTrue())
			Expect(crypto.IsSensitive("display_name")).To(BeFalse())
		})
	})
})
