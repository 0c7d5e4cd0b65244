/*
Package atomicfile writes files so that the destination either keeps its
old content or gets the complete new content, never something in between.

Getting this right by hand means handling errors from Write() and Close(),
removing a partially written file on any failure and renaming only on
success. atomicfile packages that logic:

	func writeToFileAtomically(filePath string, data []byte) error {
		w, err := atomicfile.New(filePath)
		if err != nil {
			return err
		}
		// calling Close() twice is a no-op
		defer w.Close()

		_, err = w.Write(data)
		if err != nil {
			return err
		}
		return w.Close()
	}

or, for the common whole-buffer case, just atomicfile.WriteFile(path, data).
*/
package atomicfile
