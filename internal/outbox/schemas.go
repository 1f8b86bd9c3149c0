package outbox

const activityAcceptedSchema = `{
  "type": "object",
  "title": "ActivityAccepted",
  "properties": {
    "activity_id": {"type": "string"},
    "user_id": {"type": "string"},
    "activity_type": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "steps": {"type": "integer"},
    "duration_min": {"type": "integer"},
    "calories": {"type": "integer"},
    "entry_method": {"type": "string"},
    "verification_required": {"type": "boolean"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "user_id", "activity_type", "date", "steps", "duration_min", "calories", "entry_method", "verification_required", "occurred_at"],
  "additionalProperties": false
}`

const activityRejectedSchema = `{
  "type": "object",
  "title": "ActivityRejected",
  "properties": {
    "user_id": {"type": "string"},
    "activity_type": {"type": "string"},
    "steps": {"type": "integer"},
    "duration_min": {"type": "integer"},
    "calories": {"type": "integer"},
    "field": {"type": "string"},
    "reason": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "activity_type", "steps", "duration_min", "calories", "reason", "occurred_at"],
  "additionalProperties": false
}`
