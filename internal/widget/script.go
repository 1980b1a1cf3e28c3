package widget

import (
	"bytes"
	"fmt"
	"html/template"

	"helpcrunch-live-chat/models"
)

// Values are placed in JS context, so html/template quotes and escapes them.
var scriptTemplate = template.Must(template.New("helpcrunch").Parse(`<script type="text/javascript">
  (function(w,d){
    w.HelpCrunch=function(){w.HelpCrunch.q.push(arguments)};w.HelpCrunch.q=[];
    function r(){var s=document.createElement('script');s.async=1;s.type='text/javascript';s.src={{.LoaderURL}};(d.body||d.head).appendChild(s);}
    if(w.attachEvent){w.attachEvent('onload',r)}else{w.addEventListener('load',r,false)}
  })(window, document)
</script>
<script type="text/javascript">
  HelpCrunch('init', {{.Organization}}, {{.Init}});
{{- if .AutoShow}}
  HelpCrunch('showChatWidget');
{{- end}}
</script>
`))

type scriptData struct {
	LoaderURL    string
	Organization string
	Init         models.EmbedInit
	AutoShow     bool
}

// RenderScript emits the loader and init script tags for payload.
func RenderScript(payload models.EmbedPayload, apiDomain, scheme string) (template.HTML, error) {
	var buf bytes.Buffer
	err := scriptTemplate.Execute(&buf, scriptData{
		LoaderURL:    LoaderURL(scheme, apiDomain),
		Organization: payload.Organization,
		Init:         payload.Init,
		AutoShow:     payload.AutoShow,
	})
	if err != nil {
		return "", fmt.Errorf("render helpcrunch script: %w", err)
	}
	return template.HTML(buf.String()), nil
}
