package memory

// Clone returns a deep copy of the context. The optimizer works exclusively
// on clones so the authoritative session value is never mutated by prompt
// assembly.
func (c *AgentContext) Clone() *AgentContext {
	out := *c

	out.SessionHistory = make([]Step, len(c.SessionHistory))
	for i, s := range c.SessionHistory {
		s.ActionTaken.Parameters = cloneMap(s.ActionTaken.Parameters)
		s.Result = cloneMap(s.Result)
		out.SessionHistory[i] = s
	}

	out.RecentActions = make([]RecentAction, len(c.RecentActions))
	for i, a := range c.RecentActions {
		a.Parameters = cloneMap(a.Parameters)
		a.Result = cloneMap(a.Result)
		out.RecentActions[i] = a
	}

	out.SolvedIssues = append([]SolvedIssue(nil), c.SolvedIssues...)

	if c.CurrentBlockingError != nil {
		e := *c.CurrentBlockingError
		e.FileRefs = append([]string(nil), c.CurrentBlockingError.FileRefs...)
		e.LineRefs = append([]int(nil), c.CurrentBlockingError.LineRefs...)
		out.CurrentBlockingError = &e
	}

	out.ErrorProgression = make([]ProgressionEntry, len(c.ErrorProgression))
	for i, p := range c.ErrorProgression {
		p.ErrorDetected = cloneError(p.ErrorDetected)
		p.PreviousError = cloneError(p.PreviousError)
		out.ErrorProgression[i] = p
	}

	kb := &out.KnowledgeBase
	kb.FilesRead = make(map[string]FileReadEntry, len(c.KnowledgeBase.FilesRead))
	for k, v := range c.KnowledgeBase.FilesRead {
		kb.FilesRead[k] = v
	}
	kb.SearchResults = make(map[string]SearchCacheEntry, len(c.KnowledgeBase.SearchResults))
	for k, v := range c.KnowledgeBase.SearchResults {
		v.Results = append([]SearchMatch(nil), v.Results...)
		v.SearchedFilesMetadata = append([]FileMeta(nil), v.SearchedFilesMetadata...)
		kb.SearchResults[k] = v
	}
	kb.FileMetadata = make(map[string]FileMeta, len(c.KnowledgeBase.FileMetadata))
	for k, v := range c.KnowledgeBase.FileMetadata {
		kb.FileMetadata[k] = v
	}
	kb.ErrorAnalysisNotes = append([]Note(nil), c.KnowledgeBase.ErrorAnalysisNotes...)
	if c.KnowledgeBase.FileStructure != nil {
		fs := *c.KnowledgeBase.FileStructure
		fs.FlatFiles = append([]FileEntry(nil), c.KnowledgeBase.FileStructure.FlatFiles...)
		fs.Metadata.RelevantExtensions = append([]string(nil), c.KnowledgeBase.FileStructure.Metadata.RelevantExtensions...)
		kb.FileStructure = &fs
	}

	out.FileState.DiscoveredFiles = append([]string(nil), c.FileState.DiscoveredFiles...)
	out.FileState.FileMappings = make(map[string]string, len(c.FileState.FileMappings))
	for k, v := range c.FileState.FileMappings {
		out.FileState.FileMappings[k] = v
	}

	out.AvailableTools = append([]ToolDescriptor(nil), c.AvailableTools...)

	return &out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneError(e *ErrorRecord) *ErrorRecord {
	if e == nil {
		return nil
	}
	out := *e
	out.FileRefs = append([]string(nil), e.FileRefs...)
	out.LineRefs = append([]int(nil), e.LineRefs...)
	return &out
}
