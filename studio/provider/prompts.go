package provider

const alignInstructionsTemplate = `You split a dialog written in %[1]s into sentences and translate each one into %[2]s.

Rules:
- keep the original order
- one entry per sentence; an utterance with several sentences becomes several entries with the same speaker
- speaker must be exactly one of: %[3]s
- text is the sentence as written, without the "Name:" prefix
- translation is a natural %[2]s translation

Return only JSON matching the schema.`
