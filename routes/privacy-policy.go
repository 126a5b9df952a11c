package routes

import (
	"fmt"
	"net/http"
)

// PrivacyPolicyHandler serves the privacy policy linked from the Discord application page
func PrivacyPolicyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	html := `
	<!DOCTYPE html>
	<html lang="en">
	<head>
		<meta charset="UTF-8">
		<meta name="viewport" content="width=device-width, initial-scale=1.0">
		<title>Privacy Policy</title>
	</head>
	<body>
		<h1>Privacy Policy</h1>
		<p>The invasion bot stores in-game player names, invasion ladder scores and the screenshots uploaded by company admins.</p>
		<p>Discord user names are stored only when an admin links them to a company member.</p>
		<p>Data is used to produce company invasion and monthly reports and is never shared outside the company.</p>
		<p>Ask a company admin to remove a member and their ladder history.</p>
	</body>
	</html>
	`
	fmt.Fprint(w, html)
}
