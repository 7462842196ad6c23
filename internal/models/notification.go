package models

import "time"

// NotificationTypeStatusUpdate labels status change notifications.
const NotificationTypeStatusUpdate = "status_update"

// NotificationLog is the persisted record of a status change notification.
type NotificationLog struct {
	ID               string          `db:"id" json:"id" bson:"_id"`
	GrievanceID      string          `db:"grievance_id" json:"grievance_id" bson:"grievance_id"`
	RecipientName    string          `db:"recipient_name" json:"recipient_name" bson:"recipient_name"`
	RecipientPhone   string          `db:"recipient_phone" json:"recipient_phone" bson:"recipient_phone"`
	NotificationType string          `db:"notification_type" json:"notification_type" bson:"notification_type"`
	OldStatus        GrievanceStatus `db:"old_status" json:"old_status" bson:"old_status"`
	NewStatus        GrievanceStatus `db:"new_status" json:"new_status" bson:"new_status"`
	SentAt           time.Time       `db:"sent_at" json:"sent_at" bson:"sent_at"`
	SMSContent       string          `db:"sms_content" json:"sms_content" bson:"sms_content"`
	EmailContent     string          `db:"email_content" json:"email_content" bson:"email_content"`
}
