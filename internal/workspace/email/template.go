package email

import (
	"fmt"
	"html"
)

// InvitationSubject renders the subject line for a workspace invitation.
func InvitationSubject(workspaceName string) string {
	return fmt.Sprintf("[Teamspace] %s invitation", workspaceName)
}

// InvitationBody renders the HTML body pointing at the accept link.
func InvitationBody(workspaceName, acceptURL string) string {
	return fmt.Sprintf(`<div>
  <h2>You have been invited to %s</h2>
  <p>Click the link below to join the workspace. The invitation expires, so don't wait too long.</p>
  <p><a href="%s">Accept invitation</a></p>
  <p>If you did not expect this email you can safely ignore it.</p>
</div>`, html.EscapeString(workspaceName), html.EscapeString(acceptURL))
}
