package main

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// BaseConfig is the application configuration. Defaults live in
// DefaultConfig, loaded sources are merged on top.
type BaseConfig struct {
	Server Server `json:"server"`
	Auth   Auth   `json:"auth"`
	Data   Data   `json:"data"`
	Mailer Mailer `json:"mailer"`
	Client Client `json:"client"`
}

func (c BaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Auth),
		validation.Field(&c.Mailer),
	)
}

func (c BaseConfig) GetServer() *Server {
	return &c.Server
}

func (c BaseConfig) GetAuth() *Auth {
	return &c.Auth
}

func (c BaseConfig) GetData() *Data {
	return &c.Data
}

func (c BaseConfig) GetMailer() *Mailer {
	return &c.Mailer
}

func (c BaseConfig) GetClient() *Client {
	return &c.Client
}

type Server struct {
	Address string `json:"address"`
}

func (s Server) GetAddress() string {
	return s.Address
}

// Auth implements the accounts.Config interface
type Auth struct {
	SigningKey            string   `json:"signing_key"`
	SigningMethod         string   `json:"signing_method"`
	ContextKey            string   `json:"context_key"`
	TokenExpiration       int      `json:"token_expiration"`
	ExtendedTokenDuration int      `json:"extended_token_duration"`
	TokenLookup           string   `json:"token_lookup"`
	AuthScheme            string   `json:"auth_scheme"`
	Issuer                string   `json:"issuer"`
	Audience              []string `json:"audience"`
}

func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required, validation.Length(32, 0)),
	)
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	return a.ContextKey
}

// GetTokenExpiration is the session duration in hours
func (a Auth) GetTokenExpiration() int {
	return a.TokenExpiration
}

// GetExtendedTokenDuration is the remember me session duration in hours
func (a Auth) GetExtendedTokenDuration() int {
	return a.ExtendedTokenDuration
}

func (a Auth) GetTokenLookup() string {
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

type Data struct {
	DSN string `json:"dsn"`
}

func (d Data) GetDSN() string {
	return d.DSN
}

type Mailer struct {
	Token       string `json:"token"`
	BaseURL     string `json:"base_url"`
	SenderEmail string `json:"sender_email"`
	SenderName  string `json:"sender_name"`
}

func (m Mailer) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Token, validation.Required),
		validation.Field(&m.SenderEmail, validation.Required, is.Email),
	)
}

func (m Mailer) GetToken() string {
	return m.Token
}

func (m Mailer) GetBaseURL() string {
	return m.BaseURL
}

func (m Mailer) GetSenderEmail() string {
	return m.SenderEmail
}

func (m Mailer) GetSenderName() string {
	return m.SenderName
}

type Client struct {
	BaseURL string `json:"base_url"`
}

// GetBaseURL is the address used to build the emailed account links
func (c Client) GetBaseURL() string {
	return c.BaseURL
}

func DefaultConfig() *BaseConfig {
	return &BaseConfig{
		Server: Server{
			Address: ":8572",
		},
		Auth: Auth{
			SigningMethod:         "HS256",
			ContextKey:            "app_session",
			TokenExpiration:       24,
			ExtendedTokenDuration: 24 * 30,
			TokenLookup:           "cookie:app_session",
			AuthScheme:            "Bearer",
			Issuer:                "accounts",
			Audience:              []string{"accounts"},
		},
		Data: Data{
			DSN: "file:app.db?cache=shared&_pragma=foreign_keys(1)",
		},
		Client: Client{
			BaseURL: "http://localhost:8572",
		},
	}
}
