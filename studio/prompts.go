package studio

const dialogClosingPrompt = `The dialog is in %[1]s.
Answer in two sections.
First a line "%[2]s" followed by one or two sentences describing the situation.
Then a line "%[3]s" followed by the dialog itself, one utterance per line.
Start each utterance with the name only ("%[4]s:", "%[5]s:").
Do not add anything after the dialog.`

const alignPromptTemplate = `Given the following dialog in %[1]s:
` + "```" + `
%[3]s
` + "```" + `
split it into sentences and translate each into %[2]s.
Return a JSON list in the format [[<who>, <%[1]s>, <%[2]s>], ...] where <who> is exactly one of: %[4]s.
Return only the JSON.`
