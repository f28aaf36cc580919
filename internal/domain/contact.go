package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactMessage is a message submitted through the contact form.
type ContactMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Subject   string             `bson:"subject,omitempty" json:"subject,omitempty"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
