package dynamo

// Single-table key scheme. Every record belonging to a user lives in the
// USER#<email> partition; the sort key distinguishes the record kind.
//
//	PK: USER#<email>   SK: PROFILE                → user profile
//	PK: USER#<email>   SK: VERIFICATION#<code_id> → one-time code
//	PK: USER#<email>   SK: TODO#<todo_id>         → todo item
//
// The user_id-index GSI maps the opaque user id back to the profile record;
// only profiles carry the user_id attribute, so the index never surfaces
// codes or todos.
const (
	attrPK = "PK"
	attrSK = "SK"

	userPrefix         = "USER#"
	profileSK          = "PROFILE"
	verificationPrefix = "VERIFICATION#"
	todoPrefix         = "TODO#"

	userIDIndex = "user_id-index"
)

func userPK(email string) string { return userPrefix + email }

func verificationSK(codeID string) string { return verificationPrefix + codeID }

func todoSK(todoID string) string { return todoPrefix + todoID }
