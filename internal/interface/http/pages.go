package http

const pages = `
{{define "success"}}<!DOCTYPE html>
<html><body>
<h1>You are now authorized to access the Fitbit API!</h1>
<br/><h3>You can close this window</h3>
</body></html>{{end}}
{{define "failure"}}<!DOCTYPE html>
<html><body>
<h1>ERROR: {{.Message}}</h1>
<br/><h3>You can close this window</h3>
</body></html>{{end}}
`
