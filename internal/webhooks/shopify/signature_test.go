package shopifywebhook

import "testing"

func TestVerifyAcceptsSignedBody(t *testing.T) {
	body := []byte(`{"id":1001}`)
	sig := Sign(body, "shpss_secret")
	if !Verify(body, sig, "shpss_secret") {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifyRejects(t *testing.T) {
	body := []byte(`{"id":1001}`)
	sig := Sign(body, "shpss_secret")

	cases := map[string]struct {
		body   []byte
		sig    string
		secret string
	}{
		"tampered body": {body: []byte(`{"id":1002}`), sig: sig, secret: "shpss_secret"},
		"wrong secret":  {body: body, sig: sig, secret: "other"},
		"empty header":  {body: body, sig: "", secret: "shpss_secret"},
		"not base64":    {body: body, sig: "%%%", secret: "shpss_secret"},
		"empty secret":  {body: body, sig: Sign(body, ""), secret: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if Verify(tc.body, tc.sig, tc.secret) {
				t.Fatalf("expected verification failure")
			}
		})
	}
}
