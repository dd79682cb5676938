package question

import "go.mongodb.org/mongo-driver/bson/primitive"

// CanModify is the single owner-or-admin rule gating question mutation and
// deletion.
func CanModify(caller Identity, ownerID primitive.ObjectID) bool {
	return caller.IsAdmin() || caller.UserID == ownerID
}
