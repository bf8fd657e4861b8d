package config

import (
	"bytes"
	"text/template"
)

var configFileTmpl = template.Must(template.New("config").Parse(`# Freighter server configurations

# The name of the server.
name: "{{ .Name }}"

# Logging configuration.
log:
  # Log format to use. Valid values are "json", "logfmt", and "text".
  format: "{{ .Log.Format }}"
  # Time format for the log "timestamp" field.
  # Should be described in Golang's time format.
  time_format: "{{ .Log.TimeFormat }}"
  # Path to the log file. Leave empty to write to stderr.
  #path: "{{ .Log.Path }}"

# The HTTP server configuration.
http:
  # The address on which the HTTP server will listen.
  listen_addr: "{{ .HTTP.ListenAddr }}"

  # The path to the TLS private key.
  tls_key_path: "{{ .HTTP.TLSKeyPath }}"

  # The path to the TLS certificate.
  tls_cert_path: "{{ .HTTP.TLSCertPath }}"

  # The public URL of the HTTP server.
  # This is the address transfer actions will point at.
  public_url: "{{ .HTTP.PublicURL }}"

# The stats server configuration.
stats:
  # The address on which the stats server will listen.
  listen_addr: "{{ .Stats.ListenAddr }}"

# The authentication configuration.
auth:
  # The path to the Ed25519 key used to sign pre-authorized action tokens.
  key_path: "{{ .Auth.KeyPath }}"

  # The permission granted to unauthenticated callers.
  # Valid values are "none", "read", and "write".
  anon: "{{ .Auth.Anon }}"

  # The maximum number of verified token identities kept in memory.
  token_cache_size: {{ .Auth.TokenCacheSize }}

# The storage backend configuration.
storage:
  # The storage backend to use. Valid values are "local" and "s3".
  backend: "{{ .Storage.Backend }}"

  local:
    # The directory where objects are stored.
    path: "{{ .Storage.Local.Path }}"

  s3:
    # The bucket objects are stored in.
    bucket: "{{ .Storage.S3.Bucket }}"

    # The AWS region of the bucket.
    region: "{{ .Storage.S3.Region }}"

    # Override the S3 endpoint, e.g. for MinIO.
    endpoint: "{{ .Storage.S3.Endpoint }}"

    # Prefix prepended to all object keys.
    path_prefix: "{{ .Storage.S3.PathPrefix }}"

    # Force path-style bucket addressing.
    force_path_style: {{ .Storage.S3.ForcePathStyle }}

# The transfer adapter configuration.
transfer:
  # The enabled transfer modes. "basic" is always enabled as the
  # negotiation fallback.
  adapters:
{{- range .Transfer.Adapters }}
    - "{{ . }}"
{{- end }}

  # The multipart chunk size in bytes. Objects at or below this size use a
  # single-shot upload even in multipart mode.
  max_part_size: {{ .Transfer.MaxPartSize }}

  # The lifetime, in seconds, of issued transfer actions.
  action_lifetime: {{ .Transfer.ActionLifetime }}

  # The lifetime, in seconds, of verify actions.
  verify_lifetime: {{ .Transfer.VerifyLifetime }}

  # Ask clients to attach a digest of each uploaded part. Either the legacy
  # "contentMD5" sentinel or a weighted list such as "sha-256;q=1.0".
  want_digest: "{{ .Transfer.WantDigest }}"
`))

func newConfigFile(cfg *Config) string {
	var b bytes.Buffer
	if err := configFileTmpl.Execute(&b, cfg); err != nil {
		return ""
	}
	return b.String()
}
