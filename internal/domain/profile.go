/**
 * @description
 * Domain model for user profiles. Profiles are created by the Supabase auth
 * hooks when a user signs up; this service only reads them, primarily to
 * resolve the stable customer key used with the payment provider.
 */
package domain

import "time"

// Profile is the application-side view of a registered user.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	CustomerKey string    `json:"customer_key"`
	CreatedAt   time.Time `json:"created_at"`
}
