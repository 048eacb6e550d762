// Package sms delivers OTP and account messages to student phones.
package sms

import "context"

// Sender delivers messages through a specific SMS provider.
type Sender interface {
	Name() string
	SendOTP(ctx context.Context, to, code string) error
	SendWelcome(ctx context.Context, to, name string) error
}

func otpBody(code string) string {
	return "Your Proskill verification code is: " + code + ". This code will expire in 10 minutes."
}

func welcomeBody(name string) string {
	if name == "" {
		name = "Student"
	}
	return "Welcome to Proskill, " + name + "! Your account has been successfully created. Start your learning journey today!"
}
